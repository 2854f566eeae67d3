package app

import (
	"context"
	"net/http"
	"testing"
	"time"
)

func TestHTTPServiceStartStop(t *testing.T) {
	svc := NewHTTPService("127.0.0.1:0", http.NewServeMux())
	if svc.Name() != "storefront-api" {
		t.Fatalf("unexpected service name %q", svc.Name())
	}

	done := make(chan error, 1)
	go func() { done <- svc.Start(context.Background()) }()

	// 等服务进入监听后再关停
	time.Sleep(50 * time.Millisecond)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := svc.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("start returned error after shutdown: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("start did not return after shutdown")
	}
}

func TestHTTPServiceNilGuards(t *testing.T) {
	var svc *HTTPService
	if svc.Name() != "storefront-api" {
		t.Fatalf("nil service should still report its name")
	}
	if err := svc.Start(context.Background()); err == nil {
		t.Fatalf("nil service start should error")
	}
	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("nil service stop should be a no-op, got %v", err)
	}
}
