package core

import (
	"testing"
)

func TestConfig_PostgresURL(t *testing.T) {
	cfg := &Config{}
	cfg.Database.Engine = "postgres"
	cfg.Database.Host = "localhost"
	cfg.Database.Port = 5432
	cfg.Database.Name = "testdb"
	cfg.Database.Username = "testuser"
	cfg.Database.Password = "testpassword"

	url := cfg.PostgresURL()
	expected := "host=localhost port=5432 dbname=testdb user=testuser password=testpassword sslmode="
	if url != expected {
		t.Errorf("PostgresURL() want = %s, got = %s", expected, url)
	}
}

func TestConfig_GameServerStatusAddress(t *testing.T) {
	cfg := &Config{Hostname: "127.0.0.1"}
	cfg.GameServer.StatusPort = 12345

	addr := cfg.GameServerStatusAddress()
	expected := "http://127.0.0.1:12345"
	if addr != expected {
		t.Errorf("GameServerStatusAddress() want = %s, got = %s", expected, addr)
	}
}
