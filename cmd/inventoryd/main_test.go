package main

import (
	"context"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/repository"
)

func TestParseKeySpec(t *testing.T) {
	tests := []struct {
		arg  string
		want keySpec
	}{
		{"alice", keySpec{userID: "alice", tenantID: "alice", role: repository.RoleAdmin}},
		{"alice:org-1", keySpec{userID: "alice", tenantID: "org-1", role: repository.RoleAdmin}},
		{"alice:org-1:member", keySpec{userID: "alice", tenantID: "org-1", role: repository.RoleMember}},
		{"alice::member", keySpec{userID: "alice", tenantID: "alice", role: repository.RoleMember}},
		{"alice:*", keySpec{userID: "alice", role: repository.RoleAdmin}},
	}
	for _, tt := range tests {
		t.Run(tt.arg, func(t *testing.T) {
			got, err := parseKeySpec(tt.arg)
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}

	_, err := parseKeySpec(":org-1")
	require.Error(t, err)
	_, err = parseKeySpec("alice:org-1:owner")
	require.ErrorContains(t, err, "unknown role")
}

func TestServeReturnsListenError(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := &http.Server{Addr: ln.Addr().String(), Handler: http.NotFoundHandler()}

	done := make(chan error, 1)
	go func() { done <- serve(context.Background(), logger, srv) }()

	select {
	case err := <-done:
		require.Error(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after the listener failed")
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	srv := &http.Server{Addr: addr, Handler: http.NotFoundHandler()}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- serve(ctx, logger, srv) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
