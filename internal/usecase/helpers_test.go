package usecase_test

import (
	"context"
	"fmt"
	"sync"

	"PocketTagger/internal/domain"
)

type fakeService struct {
	mu       sync.Mutex
	resp     domain.GetResponse
	getErr   error
	gets     []domain.GetRequest
	sends    [][]domain.TagAction
	sendErrs map[int]error // keyed by call number
	calls    int
}

func (f *fakeService) Get(_ context.Context, req domain.GetRequest) (domain.GetResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gets = append(f.gets, req)
	if f.getErr != nil {
		return domain.GetResponse{}, f.getErr
	}
	return f.resp, nil
}

func (f *fakeService) Send(_ context.Context, actions []domain.TagAction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := f.calls
	f.calls++
	f.sends = append(f.sends, actions)
	return f.sendErrs[call]
}

func (f *fakeService) sent() [][]domain.TagAction {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]domain.TagAction, len(f.sends))
	copy(out, f.sends)
	return out
}

type fakeTagger struct {
	mu     sync.Mutex
	tags   map[string][]string
	errs   map[string]error
	panics map[string]bool
	calls  []string
}

func (f *fakeTagger) Run(_ context.Context, url string) ([]string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()

	if f.panics[url] {
		panic("boom")
	}
	if err, ok := f.errs[url]; ok {
		return nil, err
	}
	return f.tags[url], nil
}

func (f *fakeTagger) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.calls))
	copy(out, f.calls)
	return out
}

type fakeRecorder struct {
	mu   sync.Mutex
	runs []domain.RunRecord
	err  error
}

func (f *fakeRecorder) SaveRun(_ context.Context, run domain.RunRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, run)
	return f.err
}

func (f *fakeRecorder) ListRuns(_ context.Context, limit int) ([]domain.RunRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if limit > len(f.runs) {
		limit = len(f.runs)
	}
	return f.runs[:limit], nil
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (f *fakeNotifier) Publish(_ context.Context, message string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages = append(f.messages, message)
	return nil
}

func makeActions(total int) []domain.TagAction {
	actions := make([]domain.TagAction, total)
	for i := range actions {
		actions[i] = domain.Replace(fmt.Sprintf("item-%02d", i), "tag")
	}
	return actions
}
