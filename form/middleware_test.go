package form

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/formgrid/formgrid/kit"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// A panicking endpoint must surface as an error, not kill the server.
func TestToolMiddlewareContainsPanic(t *testing.T) {
	mw := toolMiddleware(discardLogger(), "formgrid_ingest")
	ep := mw(func(ctx context.Context, req any) (any, error) {
		panic("corrupt document")
	})

	out, err := ep(context.Background(), nil)
	if err == nil {
		t.Fatal("expected an error from a panicking endpoint")
	}
	if out != nil {
		t.Fatalf("out = %v, want nil", out)
	}
}

func TestToolMiddlewarePassThrough(t *testing.T) {
	mw := toolMiddleware(discardLogger(), "formgrid_rules")

	ep := mw(func(ctx context.Context, req any) (any, error) {
		if got := kit.GetTransport(ctx); got != "mcp" {
			t.Errorf("transport = %q, want mcp", got)
		}
		return "ok", nil
	})
	out, err := ep(kit.WithTransport(context.Background(), "mcp"), nil)
	if err != nil || out != "ok" {
		t.Fatalf("out = %v, err = %v", out, err)
	}

	want := errors.New("boom")
	ep = mw(func(ctx context.Context, req any) (any, error) { return nil, want })
	if _, err := ep(context.Background(), nil); !errors.Is(err, want) {
		t.Fatalf("err = %v, want %v", err, want)
	}
}
