package client

import (
	"testing"

	"cart-service/internal/config"
	"cart-service/internal/model"

	"github.com/stretchr/testify/require"
)

func TestInitDBClient(t *testing.T) {
	t.Run("unsupported driver", func(t *testing.T) {
		_, err := InitDBClient(config.Database{Driver: "oracle", URL: "x"})
		require.ErrorContains(t, err, "unsupported database driver")
	})

	t.Run("sqlite migrates schema", func(t *testing.T) {
		db, err := InitDBClient(config.Database{Driver: "sqlite", URL: "file:client-test?mode=memory&cache=shared"})
		require.NoError(t, err)

		for _, m := range []any{&model.User{}, &model.Product{}, &model.Cart{}, &model.CartItem{}} {
			require.True(t, db.Migrator().HasTable(m))
		}

		sqlDB, err := db.DB()
		require.NoError(t, err)
		require.Equal(t, 1, sqlDB.Stats().MaxOpenConnections)
		require.NoError(t, sqlDB.Close())
	})

	t.Run("redis disabled without address", func(t *testing.T) {
		require.Nil(t, NewRedisClient(config.Redis{}))

		rdb := NewRedisClient(config.Redis{Address: "localhost:6379"})
		require.NotNil(t, rdb)
		require.NoError(t, rdb.Close())
	})
}
