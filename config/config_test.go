package config

import "testing"

func TestPostgresDSN(t *testing.T) {
	cases := []struct {
		name    string
		cfg     PostgresConfig
		want    string
		wantErr bool
	}{
		{
			name: "explicit url wins",
			cfg:  PostgresConfig{URL: "postgres://u:p@h:5432/db", Host: "other"},
			want: "postgres://u:p@h:5432/db",
		},
		{
			name: "built from parts with defaults",
			cfg:  PostgresConfig{Host: "localhost", User: "clinic", Password: "pw", DBName: "clinicore"},
			want: "postgres://clinic:pw@localhost:5432/clinicore?sslmode=disable",
		},
		{
			name:    "missing host",
			cfg:     PostgresConfig{DBName: "clinicore"},
			wantErr: true,
		},
		{
			name:    "missing dbname",
			cfg:     PostgresConfig{Host: "localhost"},
			wantErr: true,
		},
	}
	for _, tc := range cases {
		got, err := tc.cfg.DSN()
		if tc.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %q", tc.name, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("%s: %v", tc.name, err)
			continue
		}
		if got != tc.want {
			t.Errorf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestRedisAddr(t *testing.T) {
	r := RedisConfig{Host: "localhost", Port: "6379"}
	if got := r.Addr(); got != "localhost:6379" {
		t.Fatalf("Addr() = %q", got)
	}
}

func TestRetrievalConfigValidate(t *testing.T) {
	ok := RetrievalConfig{TopKConversations: 5, RecencyWeight: 0.3, RelevanceWeight: 0.7}
	if err := ok.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}
	if err := (RetrievalConfig{RecencyWeight: -1}).Validate(); err == nil {
		t.Fatal("negative weight accepted")
	}
	if err := (RetrievalConfig{TopKConversations: -1}).Validate(); err == nil {
		t.Fatal("negative top_k accepted")
	}
}

func TestTelemetryConfigValidate(t *testing.T) {
	if err := (TelemetryConfig{Enabled: true, MetricsPort: -1}).Validate(); err == nil {
		t.Fatal("negative metrics port accepted")
	}
	if err := (TelemetryConfig{Enabled: false, MetricsPort: -1}).Validate(); err != nil {
		t.Fatalf("disabled telemetry should not validate port: %v", err)
	}
}
