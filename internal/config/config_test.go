/*-------------------------------------------------------------------------
 *
 * ETL Validation Assistant
 *
 * This software is released under The PostgreSQL License
 *
 *-------------------------------------------------------------------------
 */

package config

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestDatabaseConfigJSONTags(t *testing.T) {
	body := `{
		"driver": "postgres",
		"host": "db.internal",
		"port": 5432,
		"user": "etl",
		"database": "warehouse",
		"connect_timeout": 5000000000,
		"query_timeout": 60000000000
	}`

	var cfg DatabaseConfig
	if err := json.Unmarshal([]byte(body), &cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Driver != "postgres" || cfg.Host != "db.internal" || cfg.Port != 5432 {
		t.Errorf("endpoint = %+v", cfg)
	}
	if cfg.ConnectTimeout != 5*time.Second {
		t.Errorf("connect_timeout = %v, want 5s", cfg.ConnectTimeout)
	}
	if cfg.QueryTimeout != 60*time.Second {
		t.Errorf("query_timeout = %v, want 60s", cfg.QueryTimeout)
	}

	out, err := json.Marshal(DatabaseConfig{Driver: "mysql", ConnectTimeout: time.Second})
	if err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{`"driver"`, `"connect_timeout"`, `"query_timeout"`} {
		if !strings.Contains(string(out), key) {
			t.Errorf("marshaled config missing %s: %s", key, out)
		}
	}
}

func TestDatabaseConfigApplyDefaults(t *testing.T) {
	d := DatabaseConfig{User: "etl", Database: "warehouse"}
	d.ApplyDefaults()

	if d.Driver != "mysql" || d.Host != "localhost" || d.Port != 3306 {
		t.Errorf("defaults = %+v", d)
	}
	if d.ConnectTimeout != 10*time.Second || d.QueryTimeout != 30*time.Second {
		t.Errorf("timeouts = %v/%v, want 10s/30s", d.ConnectTimeout, d.QueryTimeout)
	}
	if err := d.Validate("source"); err != nil {
		t.Errorf("defaulted endpoint should validate: %v", err)
	}

	pg := DatabaseConfig{Driver: "postgres", User: "etl", Database: "warehouse"}
	pg.ApplyDefaults()
	if pg.Port != 5432 {
		t.Errorf("postgres port = %d, want 5432", pg.Port)
	}

	if err := (&DatabaseConfig{Driver: "mysql", User: "etl"}).Validate("target"); err == nil {
		t.Error("missing database should fail validation")
	}
}
