package db

import (
	"testing"

	"articles-server/confs"
	"articles-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresDSN(t *testing.T) {
	tests := []struct {
		name    string
		cfg     confs.DatabaseConfig
		want    string
		wantErr bool
	}{
		{
			name: "url without sslmode",
			cfg:  confs.DatabaseConfig{URL: "postgres://u:p@db:5432/articles"},
			want: "postgres://u:p@db:5432/articles?sslmode=require",
		},
		{
			name: "url with query",
			cfg:  confs.DatabaseConfig{URL: "postgres://u:p@db:5432/articles?connect_timeout=5"},
			want: "postgres://u:p@db:5432/articles?connect_timeout=5&sslmode=require",
		},
		{
			name: "url keeps explicit sslmode",
			cfg:  confs.DatabaseConfig{URL: "postgres://u:p@db/articles?sslmode=disable"},
			want: "postgres://u:p@db/articles?sslmode=disable",
		},
		{
			name: "localhost disables ssl",
			cfg:  confs.DatabaseConfig{Host: "localhost", Port: "5432", User: "u", Password: "p", Name: "articles"},
			want: "host=localhost user=u password=p dbname=articles port=5432 sslmode=disable TimeZone=UTC",
		},
		{
			name:    "missing parameters",
			cfg:     confs.DatabaseConfig{Host: "db"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := PostgresDSN(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestConnect_SQLiteMigrates(t *testing.T) {
	database, err := Connect(confs.DatabaseConfig{
		Driver:      "sqlite",
		Path:        ":memory:",
		LogLevel:    "silent",
		AutoMigrate: true,
	}, zap.NewNop())
	require.NoError(t, err)
	defer database.(*GormDatabase).Close()

	m := database.GetDB().Migrator()
	assert.True(t, m.HasTable(&entities.User{}))
	assert.True(t, m.HasTable(&entities.Article{}))
	assert.True(t, m.HasTable(&entities.Session{}))
}

func TestConnect_UnknownDriver(t *testing.T) {
	_, err := Connect(confs.DatabaseConfig{Driver: "oracle"}, zap.NewNop())
	assert.Error(t, err)
}
