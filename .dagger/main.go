// Catalyst CI
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/catalyst/internal/dagger"
)

// Catalyst is the main module for the Catalyst CI pipeline
type Catalyst struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Catalyst CI module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".catalyst", "build", "tmp", "_examples"]
	source *dagger.Directory,
) *Catalyst {
	return &Catalyst{
		Source: source,
	}
}

// goContainer returns a Debian Bookworm-based Go container with gcc,
// libsqlite3-dev, CGO enabled, and the project source mounted.
//
// It is the shared foundation for tests and tidy checks.
func (c *Catalyst) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-bookworm").
		WithExec([]string{"apt-get", "update"}).
		WithExec([]string{"apt-get", "install", "-y", "gcc", "libsqlite3-dev"}).
		WithEnvVariable("CGO_ENABLED", "1").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", c.Source)
}

// Test runs the catalyst unit tests via "go test"
func (c *Catalyst) Test(ctx context.Context) (string, error) {
	return c.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// TestPostgres runs the storage tests against a throwaway PostgreSQL service.
func (c *Catalyst) TestPostgres(ctx context.Context) (string, error) {
	postgres := dag.Container().
		From("postgres:16-alpine").
		WithEnvVariable("POSTGRES_PASSWORD", "catalyst").
		WithEnvVariable("POSTGRES_DB", "catalyst").
		WithExposedPort(5432).
		AsService()

	return c.goContainer().
		WithServiceBinding("db", postgres).
		WithEnvVariable("CATALYST_TEST_POSTGRES_DSN", "postgres://postgres:catalyst@db:5432/catalyst?sslmode=disable").
		WithExec([]string{"go", "test", "-v", "./pkg/storage/..."}).
		Stdout(ctx)
}
