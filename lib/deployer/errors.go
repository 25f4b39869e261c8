package deployer

import "fmt"

// Stage names the step of a deployment that failed.
type Stage string

const (
	StageConfig  Stage = "config"
	StageLookup  Stage = "lookup"
	StageSubmit  Stage = "submit"
	StageConfirm Stage = "confirm"
)

// DeploymentFailure is the only error Run returns. It unwraps to its cause.
type DeploymentFailure struct {
	Stage     Stage
	Blueprint string
	Err       error
}

func (f *DeploymentFailure) Error() string {
	return fmt.Sprintf("deploy %s: %s failed: %v", f.Blueprint, f.Stage, f.Err)
}

func (f *DeploymentFailure) Unwrap() error {
	return f.Err
}
