package main

import (
	"bytes"
	"flag"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

// resetFlags resets the global flag.CommandLine to avoid "flag redefined" panic
func resetFlags() {
	flag.CommandLine = flag.NewFlagSet(os.Args[0], flag.ExitOnError)
}

// resetEnv clears env vars used by parseConfig
func resetEnv() {
	os.Clearenv()
}

func TestParseFlags_Default(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd"}
	assert.Equal(t, "config.env", parseFlags())
}

func TestParseFlags_Custom(t *testing.T) {
	resetFlags()
	oldArgs := os.Args
	defer func() { os.Args = oldArgs }()

	os.Args = []string{"cmd", "-c", "myconfig.env"}
	assert.Equal(t, "myconfig.env", parseFlags())
}

func TestPrintBuildInfo_Output(t *testing.T) {
	oldStdout := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	buildVersion = "v1.0.0"
	buildCommit = "abcd1234"
	buildDate = "2026-08-28"

	printBuildInfo()

	w.Close()
	var buf bytes.Buffer
	_, _ = buf.ReadFrom(r)
	os.Stdout = oldStdout
	output := buf.String()

	assert.Contains(t, output, "v1.0.0")
	assert.Contains(t, output, "abcd1234")
	assert.Contains(t, output, "2026-08-28")
}

func TestParseConfig_Defaults(t *testing.T) {
	resetEnv()

	appHost, appPort, logLevel,
		sqlitePath,
		sessionBackend, redisAddr, redisDB, redisPassword,
		kafkaAddr, kafkaTopic,
		classifierMode, weightsPath, classNamesPath, modelConfigPath, inferenceURL,
		treatmentsPath, hasherName,
		jwtSecret, jwtExp, minPasswordLen,
		err := parseConfig("nonexistent.env")

	assert.NoError(t, err)
	assert.Equal(t, "localhost", appHost)
	assert.Equal(t, "8080", appPort)
	assert.Equal(t, "info", logLevel)
	assert.Equal(t, "data/users.db", sqlitePath)
	assert.Equal(t, "memory", sessionBackend)
	assert.Equal(t, "localhost:6379", redisAddr)
	assert.Equal(t, 0, redisDB)
	assert.Empty(t, redisPassword)
	assert.Empty(t, kafkaAddr, "Kafka disabled by default")
	assert.Equal(t, "predictions", kafkaTopic)
	assert.Equal(t, "local", classifierMode)
	assert.Equal(t, "models/model.json", weightsPath)
	assert.Equal(t, "config/class_names.json", classNamesPath)
	assert.Equal(t, "config/model_config.json", modelConfigPath)
	assert.Equal(t, "http://localhost:9090", inferenceURL)
	assert.Equal(t, "data/treatments.json", treatmentsPath)
	assert.Equal(t, "sha256", hasherName)
	assert.Equal(t, "my_super_secret_key", jwtSecret)
	assert.Equal(t, 3600, jwtExp)
	assert.Equal(t, 4, minPasswordLen)
}

func TestParseConfig_EnvOverrides(t *testing.T) {
	resetEnv()
	t.Setenv("APP_PORT", "9000")
	t.Setenv("SESSION_BACKEND", "redis")
	t.Setenv("KAFKA_ADDR", "localhost:9092")
	t.Setenv("CLASSIFIER_MODE", "remote")
	t.Setenv("PASSWORD_HASHER", "bcrypt")
	t.Setenv("PASSWORD_MIN_LENGTH", "8")

	_, appPort, _,
		_,
		sessionBackend, _, _, _,
		kafkaAddr, _,
		classifierMode, _, _, _, _,
		_, hasherName,
		_, _, minPasswordLen,
		err := parseConfig("nonexistent.env")

	assert.NoError(t, err)
	assert.Equal(t, "9000", appPort)
	assert.Equal(t, "redis", sessionBackend)
	assert.Equal(t, "localhost:9092", kafkaAddr)
	assert.Equal(t, "remote", classifierMode)
	assert.Equal(t, "bcrypt", hasherName)
	assert.Equal(t, 8, minPasswordLen)
}

func TestParseConfig_BadInt(t *testing.T) {
	resetEnv()
	t.Setenv("JWT_EXP_SECOND", "not-a-number")

	_, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, _, err := parseConfig("nonexistent.env")
	assert.Error(t, err)
}
