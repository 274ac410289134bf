package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnvHelpers(t *testing.T) {
	t.Setenv("TEST_STR", "value")
	t.Setenv("TEST_INT", "42")
	t.Setenv("TEST_BAD_INT", "nope")
	t.Setenv("TEST_DURATION", "90s")
	t.Setenv("TEST_SLICE", "a, b ,c")

	assert.Equal(t, "value", getEnv("TEST_STR", "fallback"))
	assert.Equal(t, "fallback", getEnv("TEST_MISSING", "fallback"))
	assert.Equal(t, 42, getEnvAsInt("TEST_INT", 7))
	assert.Equal(t, 7, getEnvAsInt("TEST_BAD_INT", 7))
	assert.Equal(t, 90*time.Second, getEnvAsDuration("TEST_DURATION", time.Minute))
	assert.Equal(t, []string{"a", "b", "c"}, getEnvAsSlice("TEST_SLICE", nil))
}

func TestDatabaseURLFromParts(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_USER", "catalog")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_NAME", "catalog_db")

	dsn := databaseURLFromParts()

	assert.Contains(t, dsn, "host=db.internal")
	assert.Contains(t, dsn, "dbname=catalog_db")
	assert.Contains(t, dsn, "port=5432")
	assert.Contains(t, dsn, "sslmode=disable")
}

func TestDatabaseURLFromParts_Incomplete(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")

	assert.Equal(t, "", databaseURLFromParts())
}
