package lifecycle

import (
	"context"

	"github.com/cuongbtq/render-jobs/internal/contentstore"
	"github.com/cuongbtq/render-jobs/internal/domain"
	"github.com/cuongbtq/render-jobs/internal/events"
	"github.com/stretchr/testify/mock"
)

type mockStore struct {
	mock.Mock
}

func (m *mockStore) Upload(ctx context.Context, data []byte) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *mockStore) Download(ctx context.Context, hash, dest string) error {
	args := m.Called(ctx, hash, dest)
	return args.Error(0)
}

func (m *mockStore) Stat(ctx context.Context, hash string) (*contentstore.ObjectInfo, error) {
	args := m.Called(ctx, hash)
	info, _ := args.Get(0).(*contentstore.ObjectInfo)
	return info, args.Error(1)
}

type mockPersister struct {
	mock.Mock
}

func (m *mockPersister) SaveJob(ctx context.Context, job domain.Job) error {
	args := m.Called(ctx, job)
	return args.Error(0)
}

func (m *mockPersister) LoadJobs(ctx context.Context, limit int) ([]domain.Job, error) {
	args := m.Called(ctx, limit)
	jobs, _ := args.Get(0).([]domain.Job)
	return jobs, args.Error(1)
}

func (m *mockPersister) DeleteJobs(ctx context.Context, jobIDs []string) error {
	args := m.Called(ctx, jobIDs)
	return args.Error(0)
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, ev events.Event) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}
