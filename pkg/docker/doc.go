// Package docker runs throwaway database servers in Docker so that history
// stores and alters can be exercised against a real ClickHouse or PostgreSQL
// instance.
//
// Containers are managed with testcontainers and always expose a random host
// port; use Endpoint to find where the server is listening.
//
// # Usage Example
//
//	container := docker.NewWithOptions(docker.DockerOptions{
//		Engine:   docker.EnginePostgres,
//		Database: "app",
//	})
//
//	ctx := context.Background()
//	defer container.Stop(ctx)
//
//	if err := container.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//
//	ep, _ := container.Endpoint(ctx)
//	cfg := &config.Config{
//		Type:               config.TypePostgres,
//		Host:               ep.Host,
//		Port:               ep.Port,
//		Username:           ep.Username,
//		Password:           ep.Password,
//		DBName:             ep.Database,
//		RevisionSchemaName: "revision",
//	}
package docker
