package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/tripsync/internal/db"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	gdb, err := db.Open(db.Options{
		Driver: "sqlite",
		Path:   fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		Silent: true,
	})
	require.NoError(t, err)

	sqlDB, err := gdb.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	return gdb
}

func createUser(t *testing.T, gdb *gorm.DB, name string) db.User {
	t.Helper()
	user, err := NewUserService(gdb).Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    strings.ToLower(name) + "@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	return *user
}

func createTrip(t *testing.T, trips *TripService, owner db.User, start, end string, members ...db.User) db.Trip {
	t.Helper()
	ctx := context.Background()
	trip, err := trips.Create(ctx, owner.ID, TripInput{Name: "Lisbon", Destination: "Lisbon, Portugal", StartDate: start, EndDate: end})
	require.NoError(t, err)
	for _, member := range members {
		trip, err = trips.AddMember(ctx, trip.ID, owner.ID, member.Email)
		require.NoError(t, err)
	}
	return *trip
}

type fakeHTTPClient struct {
	handler func(*http.Request) (*http.Response, error)
}

func (f fakeHTTPClient) Do(req *http.Request) (*http.Response, error) {
	if f.handler == nil {
		return nil, errors.New("no handler configured")
	}
	return f.handler(req)
}
