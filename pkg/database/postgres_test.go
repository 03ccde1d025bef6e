package database

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/research-match-api/pkg/config"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{Host: "db", Port: 5433, User: "rm", Password: "pw", Name: "research", SSLMode: "disable"}
	assert.Equal(t, "host=db port=5433 user=rm password=pw dbname=research sslmode=disable", DSN(cfg))

	cfg.URL = "postgres://rm:pw@db/research"
	assert.Equal(t, "postgres://rm:pw@db/research", DSN(cfg))
}
