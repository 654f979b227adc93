package approval

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockBackend is a gomock-style double for Backend, hand-written in the
// shape mockgen would produce, so call expectations on Prompt (order,
// count, arguments) can be asserted the way the rest of this module's
// orchestration layer does.
type MockBackend struct {
	ctrl     *gomock.Controller
	recorder *MockBackendMockRecorder
}

type MockBackendMockRecorder struct {
	mock *MockBackend
}

func NewMockBackend(ctrl *gomock.Controller) *MockBackend {
	m := &MockBackend{ctrl: ctrl}
	m.recorder = &MockBackendMockRecorder{m}
	return m
}

func (m *MockBackend) EXPECT() *MockBackendMockRecorder {
	return m.recorder
}

func (m *MockBackend) Prompt(ctx context.Context, req ApprovalRequest) (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Prompt", ctx, req)
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

func (mr *MockBackendMockRecorder) Prompt(ctx, req any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Prompt", reflect.TypeOf((*MockBackend)(nil).Prompt), ctx, req)
}
