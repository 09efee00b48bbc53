package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrArtifactNotFound is returned when no artifact matches a name
	ErrArtifactNotFound = errors.New("artifact not found")

	// ErrAmbiguousArtifact is returned when a short name matches artifacts from several sources
	ErrAmbiguousArtifact = errors.New("ambiguous artifact name")

	// ErrUnknownDependency is returned when a script depends on a script ID or tag nobody provides
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrNetworkMismatch is returned when a ledger or provider reports a different chain than expected
	ErrNetworkMismatch = errors.New("network mismatch")

	// ErrNetworkNotConfigured is returned when the selected network has no configuration
	ErrNetworkNotConfigured = errors.New("network not configured")
)

// ConnectionError is returned when the network provider cannot be reached or
// does not match its configuration.
type ConnectionError struct {
	Network string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("failed to connect to network %q: %v", e.Network, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// UnresolvedRoleError is returned when a named account role has no mapping
// for the active network.
type UnresolvedRoleError struct {
	Role    string
	Network string
	Reason  string
}

func (e *UnresolvedRoleError) Error() string {
	msg := fmt.Sprintf("named account %q could not be resolved on network %q", e.Role, e.Network)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// InvalidArtifactError is returned for missing, malformed or non-deployable artifacts.
type InvalidArtifactError struct {
	Artifact string
	Reason   string
	Err      error
}

func (e *InvalidArtifactError) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("invalid artifact %s: %s: %v", e.Artifact, e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("invalid artifact %s: %v", e.Artifact, e.Err)
	default:
		return fmt.Sprintf("invalid artifact %s: %s", e.Artifact, e.Reason)
	}
}

func (e *InvalidArtifactError) Unwrap() error { return e.Err }

// DeploymentFailedError is returned when a deployment transaction could not be
// submitted, reverted, or did not produce code.
type DeploymentFailedError struct {
	Contract        string
	TransactionHash string
	Reason          string
	Err             error
}

func (e *DeploymentFailedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "deployment of %s failed", e.Contract)
	if e.TransactionHash != "" {
		fmt.Fprintf(&b, " (tx %s)", e.TransactionHash)
	}
	if e.Reason != "" {
		b.WriteString(": " + e.Reason)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DeploymentFailedError) Unwrap() error { return e.Err }

// CyclicDependencyError is returned when script dependencies do not form a DAG.
type CyclicDependencyError struct {
	Scripts []string
}

func (e *CyclicDependencyError) Error() string {
	return fmt.Sprintf("circular dependency detected involving scripts: %v", e.Scripts)
}
