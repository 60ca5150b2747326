package services

import (
	"context"
	"errors"
	"testing"

	"github.com/NomadCrew/tripsync-backend/types"
	"github.com/go-redis/redismock/v9"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixedCounter int

func (f fixedCounter) GetConnectionCount() int { return int(f) }

func TestHealthService_CheckHealth(t *testing.T) {
	tests := []struct {
		name       string
		dbErr      error
		redisErr   error
		wantStatus types.HealthStatus
		wantDB     types.HealthStatus
		wantRedis  types.HealthStatus
	}{
		{"all up", nil, nil, types.HealthStatusUp, types.HealthStatusUp, types.HealthStatusUp},
		{"database down", errors.New("refused"), nil, types.HealthStatusDown, types.HealthStatusDown, types.HealthStatusUp},
		{"redis down", nil, errors.New("refused"), types.HealthStatusDown, types.HealthStatusUp, types.HealthStatusDown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, err := pgxmock.NewPool()
			require.NoError(t, err)
			defer db.Close()
			if tt.dbErr != nil {
				db.ExpectPing().WillReturnError(tt.dbErr)
			} else {
				db.ExpectPing()
			}

			rdb, rmock := redismock.NewClientMock()
			if tt.redisErr != nil {
				rmock.ExpectPing().SetErr(tt.redisErr)
			} else {
				rmock.ExpectPing().SetVal("PONG")
			}

			svc := NewHealthService(db, rdb, fixedCounter(3), "1.2.3")
			health := svc.CheckHealth(context.Background())

			assert.Equal(t, tt.wantStatus, health.Status)
			assert.Equal(t, tt.wantDB, health.Components["database"].Status)
			assert.Equal(t, tt.wantRedis, health.Components["redis"].Status)
			assert.Equal(t, "1.2.3", health.Version)
			assert.Equal(t, 3, health.Subscribers)
			assert.NotEmpty(t, health.Timestamp)

			assert.NoError(t, db.ExpectationsWereMet())
			assert.NoError(t, rmock.ExpectationsWereMet())
		})
	}
}

func TestHealthService_NoRedis(t *testing.T) {
	db, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer db.Close()
	db.ExpectPing()

	health := NewHealthService(db, nil, nil, "dev").CheckHealth(context.Background())

	assert.Equal(t, types.HealthStatusDegraded, health.Status)
	assert.Equal(t, types.HealthStatusDegraded, health.Components["redis"].Status)
	assert.Zero(t, health.Subscribers)
}
