// Package mocks provides test doubles for the store package.
package mocks

import (
	"context"

	model "github.com/sells-group/groundwater-cli/internal/model"
	mock "github.com/stretchr/testify/mock"
)

// MockMetricStore is a mock type for the MetricStore interface.
type MockMetricStore struct {
	mock.Mock
}

// FetchRecords provides a mock function with given fields: ctx, locationID, year
func (_m *MockMetricStore) FetchRecords(ctx context.Context, locationID string, year string) ([]model.MetricRecord, error) {
	ret := _m.Called(ctx, locationID, year)

	if len(ret) == 0 {
		panic("no return value specified for FetchRecords")
	}

	var r0 []model.MetricRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, string) ([]model.MetricRecord, error)); ok {
		return rf(ctx, locationID, year)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.MetricRecord)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// FetchRecordsAllYears provides a mock function with given fields: ctx, name, typ
func (_m *MockMetricStore) FetchRecordsAllYears(ctx context.Context, name string, typ model.LocationType) ([]model.LocatedRecord, error) {
	ret := _m.Called(ctx, name, typ)

	if len(ret) == 0 {
		panic("no return value specified for FetchRecordsAllYears")
	}

	var r0 []model.LocatedRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, model.LocationType) ([]model.LocatedRecord, error)); ok {
		return rf(ctx, name, typ)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.LocatedRecord)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// ListAvailableYears provides a mock function with given fields: ctx
func (_m *MockMetricStore) ListAvailableYears(ctx context.Context) ([]string, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for ListAvailableYears")
	}

	var r0 []string
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]string, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// ListAllNodes provides a mock function with given fields: ctx
func (_m *MockMetricStore) ListAllNodes(ctx context.Context) ([]model.LocationNode, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for ListAllNodes")
	}

	var r0 []model.LocationNode
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) ([]model.LocationNode, error)); ok {
		return rf(ctx)
	}
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]model.LocationNode)
	}
	r1 = ret.Error(1)

	return r0, r1
}

// NewMockMetricStore creates a new instance of MockMetricStore. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockMetricStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockMetricStore {
	m := &MockMetricStore{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}
