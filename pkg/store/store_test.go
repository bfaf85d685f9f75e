package store

import (
	"context"
	"os"
	"strconv"
	"testing"
	"time"

	"github.com/matzehuels/flowtower/pkg/errors"
	"github.com/matzehuels/flowtower/pkg/flow"
)

func testGraph(name string) *flow.Graph {
	return &flow.Graph{
		Nodes: []flow.Node{
			{ID: flow.StartID, Type: flow.TypeStart, Label: "Start"},
			{ID: "END_START", Type: flow.TypeEnd, Label: flow.LabelEnd},
		},
		Edges: []flow.Edge{
			{ID: "START-END_START-end", Source: flow.StartID, Target: "END_START", Type: flow.EdgeNormal, Kind: flow.KindEnd},
		},
		Metadata: flow.Metadata{APIName: name, Label: name + " Flow"},
	}
}

// testStore runs the behavior every backend must share.
func testStore(t *testing.T, s Store) {
	t.Helper()
	ctx := context.Background()

	rec := NewRecord("Router.flow-meta.xml", []byte("<Flow/>"), testGraph("Router"))
	id, err := s.SaveFlow(ctx, rec)
	if err != nil {
		t.Fatalf("SaveFlow: %v", err)
	}
	if err := ValidateID(id); err != nil {
		t.Errorf("SaveFlow returned %q: %v", id, err)
	}
	if rec.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}

	got, err := s.GetFlow(ctx, id)
	if err != nil {
		t.Fatalf("GetFlow: %v", err)
	}
	if got.APIName != "Router" || got.Label != "Router Flow" || got.NodeCount != 2 {
		t.Errorf("GetFlow = %+v", got)
	}
	if got.XML != "<Flow/>" || got.Graph == nil || len(got.Graph.Edges) != 1 {
		t.Errorf("record body not preserved: %+v", got)
	}

	older := NewRecord("Old.flow", nil, testGraph("Old"))
	older.CreatedAt = rec.CreatedAt.Add(-time.Hour)
	if _, err := s.SaveFlow(ctx, older); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListFlows(ctx, 0)
	if err != nil {
		t.Fatalf("ListFlows: %v", err)
	}
	if len(list) != 2 || list[0].ID != id || list[1].APIName != "Old" {
		t.Errorf("ListFlows = %+v, want newest first", list)
	}
	if list, _ := s.ListFlows(ctx, 1); len(list) != 1 {
		t.Errorf("ListFlows(1) returned %d", len(list))
	}

	if err := s.DeleteFlow(ctx, id); err != nil {
		t.Fatalf("DeleteFlow: %v", err)
	}
	if _, err := s.GetFlow(ctx, id); !errors.Is(err, errors.ErrCodeFlowNotFound) {
		t.Errorf("GetFlow after delete: %v", err)
	}
	if err := s.DeleteFlow(ctx, id); !errors.Is(err, errors.ErrCodeFlowNotFound) {
		t.Errorf("second DeleteFlow: %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	testStore(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	s, err := NewFileStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	testStore(t, s)

	if _, err := s.GetFlow(context.Background(), "../etc/passwd"); !errors.Is(err, errors.ErrCodeFlowNotFound) {
		t.Errorf("path-like id should be not found, got %v", err)
	}
}

func TestMongoStore(t *testing.T) {
	uri := os.Getenv("FLOWTOWER_TEST_MONGO_URI")
	if uri == "" {
		t.Skip("FLOWTOWER_TEST_MONGO_URI not set")
	}
	s, err := NewMongoStore(context.Background(), MongoConfig{
		URI:        uri,
		Database:   "flowtower_test",
		Collection: "flows_" + strconv.FormatInt(time.Now().UnixNano(), 36),
	})
	if err != nil {
		t.Fatalf("NewMongoStore: %v", err)
	}
	defer s.Close()
	testStore(t, s)
}

func TestNewMongoStoreRequiresURI(t *testing.T) {
	_, err := NewMongoStore(context.Background(), MongoConfig{})
	if !errors.Is(err, errors.ErrCodeInvalidOptions) {
		t.Errorf("err = %v, want INVALID_OPTIONS", err)
	}
}

func TestValidateID(t *testing.T) {
	if err := ValidateID("9b2f3f39-3f0c-4a57-9e43-3a1f6a2f0b11"); err != nil {
		t.Errorf("valid uuid rejected: %v", err)
	}
	for _, id := range []string{"", "abc", "../x"} {
		if err := ValidateID(id); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ValidateID(%q) = %v", id, err)
		}
	}
}
