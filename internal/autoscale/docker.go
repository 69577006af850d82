package autoscale

import (
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// DockerRuntime scales services by starting and stopping containers
// through the docker CLI. A service with container prefix
// "banking-ledger-service" runs as a base container plus numbered
// clones "banking-ledger-service-1", "banking-ledger-service-2" and so
// on, all attached to the same network with the service name as a
// shared alias so the load balancer discovers every instance over DNS.
type DockerRuntime struct {
	network string
	log     *zap.Logger
}

// NewDockerRuntime creates a DockerRuntime on the given docker network.
func NewDockerRuntime(network string, log *zap.Logger) *DockerRuntime {
	return &DockerRuntime{network: network, log: log}
}

type containerConfig struct {
	Config struct {
		Image  string            `json:"Image"`
		Env    []string          `json:"Env"`
		Labels map[string]string `json:"Labels"`
	} `json:"Config"`
	HostConfig struct {
		RestartPolicy struct {
			Name string `json:"Name"`
		} `json:"RestartPolicy"`
	} `json:"HostConfig"`
}

// Count returns the number of running containers for the service,
// counting the base container and its numbered clones.
func (r *DockerRuntime) Count(ctx context.Context, prefix string) (int, error) {
	names, err := r.runningContainers(ctx, prefix)
	if err != nil {
		return 0, err
	}

	count := 0
	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `-\d+$`)
	for _, name := range names {
		if name == prefix || pattern.MatchString(name) {
			count++
		}
	}
	if count == 0 {
		return 1, nil
	}
	return count, nil
}

// ScaleUp clones the base container under the next free instance
// number, copying its image, environment and restart policy. The new
// instance joins the network under the given alias.
func (r *DockerRuntime) ScaleUp(ctx context.Context, prefix, alias string) error {
	base, err := r.inspectBase(ctx, prefix)
	if err != nil {
		return err
	}

	numbers, err := r.instanceNumbers(ctx, prefix)
	if err != nil {
		return err
	}

	next := 1
	for numbers[next] {
		next++
	}
	name := fmt.Sprintf("%s-%d", prefix, next)

	args := []string{
		"run", "-d",
		"--name", name,
		"--network", r.network,
		"--network-alias", alias,
	}
	if policy := base.HostConfig.RestartPolicy.Name; policy != "" && policy != "no" {
		args = append(args, "--restart", policy)
	}
	for _, env := range base.Config.Env {
		args = append(args, "-e", env)
	}
	for key, value := range base.Config.Labels {
		args = append(args, "--label", key+"="+value)
	}
	args = append(args, "--label", "scaled-instance=true", base.Config.Image)

	if out, err := exec.CommandContext(ctx, "docker", args...).CombinedOutput(); err != nil {
		return fmt.Errorf("docker run %s: %w: %s", name, err, strings.TrimSpace(string(out)))
	}

	r.log.Info("container_started", zap.String("container", name))
	return nil
}

// ScaleDown stops and removes the highest numbered clone. The base
// container is never removed.
func (r *DockerRuntime) ScaleDown(ctx context.Context, prefix string) error {
	numbers, err := r.instanceNumbers(ctx, prefix)
	if err != nil {
		return err
	}

	highest := 0
	for n := range numbers {
		if n > highest {
			highest = n
		}
	}
	if highest == 0 {
		r.log.Info("no_scaled_instances", zap.String("container_prefix", prefix))
		return nil
	}

	name := fmt.Sprintf("%s-%d", prefix, highest)
	for _, cmd := range [][]string{{"stop", name}, {"rm", name}} {
		if out, err := exec.CommandContext(ctx, "docker", cmd...).CombinedOutput(); err != nil {
			return fmt.Errorf("docker %s %s: %w: %s", cmd[0], name, err, strings.TrimSpace(string(out)))
		}
	}

	r.log.Info("container_removed", zap.String("container", name))
	return nil
}

func (r *DockerRuntime) runningContainers(ctx context.Context, prefix string) ([]string, error) {
	out, err := exec.CommandContext(ctx, "docker",
		"ps", "--filter", "name="+prefix, "--format", "{{.Names}}").Output()
	if err != nil {
		return nil, fmt.Errorf("docker ps: %w", err)
	}

	var names []string
	for _, line := range strings.Split(string(out), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			names = append(names, line)
		}
	}
	return names, nil
}

// instanceNumbers returns the set of clone numbers currently running.
func (r *DockerRuntime) instanceNumbers(ctx context.Context, prefix string) (map[int]bool, error) {
	names, err := r.runningContainers(ctx, prefix)
	if err != nil {
		return nil, err
	}

	pattern := regexp.MustCompile("^" + regexp.QuoteMeta(prefix) + `-(\d+)$`)
	numbers := make(map[int]bool)
	for _, name := range names {
		if match := pattern.FindStringSubmatch(name); match != nil {
			n, _ := strconv.Atoi(match[1])
			numbers[n] = true
		}
	}
	return numbers, nil
}

// inspectBase resolves the container to clone from, preferring the base
// container and falling back to any running instance.
func (r *DockerRuntime) inspectBase(ctx context.Context, prefix string) (*containerConfig, error) {
	names, err := r.runningContainers(ctx, prefix)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no running containers for %s", prefix)
	}

	target := names[0]
	for _, name := range names {
		if name == prefix {
			target = name
			break
		}
	}

	out, err := exec.CommandContext(ctx, "docker", "inspect", target).Output()
	if err != nil {
		return nil, fmt.Errorf("docker inspect %s: %w", target, err)
	}

	var configs []containerConfig
	if err := json.Unmarshal(out, &configs); err != nil {
		return nil, fmt.Errorf("parse inspect output for %s: %w", target, err)
	}
	if len(configs) == 0 {
		return nil, fmt.Errorf("empty inspect output for %s", target)
	}
	return &configs[0], nil
}
