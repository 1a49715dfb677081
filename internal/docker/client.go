/*
 * Omeka S Deploy - Docker Client Service
 * Copyright (c) 2026 Omekactl Contributors
 * All rights reserved.
 */

package docker

import (
	"context"
	"fmt"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/client"

	"github.com/omekactl/omekactl/internal/errors"
	"github.com/omekactl/omekactl/internal/logger"
)

// Client wraps the Docker client with the one deployment operation the
// core updater needs: restarting the PHP-FPM container.
type Client struct {
	client *client.Client
	logger *logger.Logger
}

// NewClient creates a new Docker client
func NewClient() (*Client, error) {
	cli, err := client.NewClientWithOpts(client.FromEnv, client.WithAPIVersionNegotiation())
	if err != nil {
		return nil, errors.WrapDockerError(err, "docker_client_init",
			"failed to initialize Docker client")
	}

	return &Client{
		client: cli,
		logger: logger.GetDefault(),
	}, nil
}

// Close closes the Docker client connection
func (c *Client) Close() error {
	return c.client.Close()
}

// RestartContainer restarts the named container
func (c *Client) RestartContainer(ctx context.Context, name string) error {
	c.logger.WithFields(logger.Fields{
		"container": name,
	}).Debug("Restarting container")

	timeout := 30
	if err := c.client.ContainerRestart(ctx, name, container.StopOptions{Timeout: &timeout}); err != nil {
		return errors.WrapDockerError(err, "restart_container",
			fmt.Sprintf("failed to restart container: %s", name))
	}

	return nil
}
