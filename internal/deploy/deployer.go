// Package deploy hands a composed template to CloudFormation through change
// sets and waits for the engine to finish.
package deploy

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog"
)

// CloudFormationAPI defines the CloudFormation operations the deployer uses.
type CloudFormationAPI interface {
	DescribeStacks(ctx context.Context, params *cloudformation.DescribeStacksInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStacksOutput, error)
	CreateChangeSet(ctx context.Context, params *cloudformation.CreateChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.CreateChangeSetOutput, error)
	DescribeChangeSet(ctx context.Context, params *cloudformation.DescribeChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeChangeSetOutput, error)
	ExecuteChangeSet(ctx context.Context, params *cloudformation.ExecuteChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.ExecuteChangeSetOutput, error)
	DeleteChangeSet(ctx context.Context, params *cloudformation.DeleteChangeSetInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteChangeSetOutput, error)
	DeleteStack(ctx context.Context, params *cloudformation.DeleteStackInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DeleteStackOutput, error)
	DescribeStackEvents(ctx context.Context, params *cloudformation.DescribeStackEventsInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackEventsOutput, error)
	DescribeStackResources(ctx context.Context, params *cloudformation.DescribeStackResourcesInput, optFns ...func(*cloudformation.Options)) (*cloudformation.DescribeStackResourcesOutput, error)
}

var (
	// ErrStackNotFound is returned when the named stack does not exist.
	ErrStackNotFound = errors.New("stack does not exist")
	// ErrRollbackComplete means a failed first create left the stack unusable.
	ErrRollbackComplete = errors.New("stack is in ROLLBACK_COMPLETE; run destroy first")
	// ErrStackBusy means another operation is still running on the stack.
	ErrStackBusy = errors.New("stack has an operation in progress")
	// ErrMissingParameters means a stack would be created without a value
	// for some of its parameters.
	ErrMissingParameters = errors.New("parameters need a value when the stack is created")
)

// Deployer drives CloudFormation change sets.
type Deployer struct {
	api CloudFormationAPI
	log zerolog.Logger
	now func() time.Time

	// PollInterval is the waiters' minimum delay between describes.
	PollInterval time.Duration
	// Timeout bounds every wait on the engine.
	Timeout time.Duration
}

func NewDeployer(api CloudFormationAPI, log zerolog.Logger) *Deployer {
	return &Deployer{
		api:          api,
		log:          log,
		now:          time.Now,
		PollInterval: 5 * time.Second,
		Timeout:      60 * time.Minute,
	}
}

// Request is one template submission.
type Request struct {
	StackName    string
	TemplateBody string
	// An empty parameter value keeps the value of the deployed stack.
	Parameters map[string]string
	Tags       map[string]string
}

// Change is one resource-level entry of a change set.
type Change struct {
	Action       string
	LogicalID    string
	PhysicalID   string
	ResourceType string
	Replacement  string
}

// Result describes a finished diff or deploy.
type Result struct {
	StackName   string
	ChangeSetID string
	Created     bool
	NoChanges   bool
	Changes     []Change
	Outputs     map[string]string
}

// Stack returns the current state of a stack, or nil if it does not exist.
func (d *Deployer) Stack(ctx context.Context, name string) (*types.Stack, error) {
	out, err := d.api.DescribeStacks(ctx, &cloudformation.DescribeStacksInput{StackName: aws.String(name)})
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("DescribeStacks: %w", err)
	}
	if len(out.Stacks) == 0 {
		return nil, nil
	}
	return &out.Stacks[0], nil
}

// Deployed reports whether s is a stack that has been created. A stack in
// REVIEW_IN_PROGRESS only holds change sets and has no resources yet.
func Deployed(s *types.Stack) bool {
	return s != nil && s.StackStatus != types.StackStatusReviewInProgress
}

// Diff creates a change set, reads its changes and removes it again. The
// change set, and the empty stack a CREATE change set leaves behind, are
// removed whether or not the change set could be read.
func (d *Deployer) Diff(ctx context.Context, req Request) (*Result, error) {
	existing, err := d.Stack(ctx, req.StackName)
	if err != nil {
		return nil, err
	}
	if !Deployed(existing) {
		existing = nil
	}

	res, err := d.prepare(ctx, req, existing)
	if res != nil {
		if cerr := d.discard(ctx, res); cerr != nil {
			if err == nil {
				return nil, cerr
			}
			d.log.Warn().Err(cerr).Str("stack", req.StackName).Msg("cleaning up after failed diff")
		}
	} else if existing == nil && err != nil && !errors.Is(err, ErrMissingParameters) {
		// CreateChangeSet itself failed but may still have left the stack.
		d.dropReview(ctx, req.StackName)
	}
	if err != nil {
		return nil, err
	}
	return res, nil
}

// discard deletes the change set behind res and, for a CREATE change set,
// the stack in REVIEW_IN_PROGRESS holding it.
func (d *Deployer) discard(ctx context.Context, res *Result) error {
	if _, err := d.api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
		StackName:     aws.String(res.StackName),
		ChangeSetName: aws.String(res.ChangeSetID),
	}); err != nil && !isNotExist(err) {
		return fmt.Errorf("DeleteChangeSet: %w", err)
	}
	if res.Created {
		if _, err := d.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(res.StackName)}); err != nil {
			return fmt.Errorf("DeleteStack: %w", err)
		}
	}
	return nil
}

// dropReview deletes name if it is left in REVIEW_IN_PROGRESS.
func (d *Deployer) dropReview(ctx context.Context, name string) {
	s, err := d.Stack(ctx, name)
	if err != nil || s == nil || Deployed(s) {
		return
	}
	if _, err := d.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(name)}); err != nil {
		d.log.Warn().Err(err).Str("stack", name).Msg("deleting stack left in review")
	}
}

// Deploy creates and executes a change set, then waits for the stack to settle.
func (d *Deployer) Deploy(ctx context.Context, req Request) (*Result, error) {
	existing, err := d.Stack(ctx, req.StackName)
	if err != nil {
		return nil, err
	}
	if !Deployed(existing) {
		existing = nil
	} else {
		switch status := existing.StackStatus; {
		case status == types.StackStatusRollbackComplete:
			return nil, fmt.Errorf("%s: %w", req.StackName, ErrRollbackComplete)
		case strings.HasSuffix(string(status), "_IN_PROGRESS"):
			return nil, fmt.Errorf("%s (%s): %w", req.StackName, status, ErrStackBusy)
		}
	}

	res, err := d.prepare(ctx, req, existing)
	if err != nil {
		return nil, err
	}
	if res.NoChanges {
		if _, err := d.api.DeleteChangeSet(ctx, &cloudformation.DeleteChangeSetInput{
			StackName:     aws.String(req.StackName),
			ChangeSetName: aws.String(res.ChangeSetID),
		}); err != nil {
			return nil, fmt.Errorf("DeleteChangeSet: %w", err)
		}
		res.Outputs, err = d.Outputs(ctx, req.StackName)
		return res, err
	}

	started := d.now()
	d.log.Info().Str("stack", req.StackName).Int("changes", len(res.Changes)).Msg("executing change set")
	if _, err := d.api.ExecuteChangeSet(ctx, &cloudformation.ExecuteChangeSetInput{
		StackName:     aws.String(req.StackName),
		ChangeSetName: aws.String(res.ChangeSetID),
	}); err != nil {
		return nil, fmt.Errorf("ExecuteChangeSet: %w", err)
	}

	describe := &cloudformation.DescribeStacksInput{StackName: aws.String(req.StackName)}
	if res.Created {
		err = cloudformation.NewStackCreateCompleteWaiter(d.api, func(o *cloudformation.StackCreateCompleteWaiterOptions) {
			o.MinDelay = d.PollInterval
		}).Wait(ctx, describe, d.Timeout)
	} else {
		err = cloudformation.NewStackUpdateCompleteWaiter(d.api, func(o *cloudformation.StackUpdateCompleteWaiterOptions) {
			o.MinDelay = d.PollInterval
		}).Wait(ctx, describe, d.Timeout)
	}
	if err != nil {
		return nil, d.failure(ctx, req.StackName, started, err)
	}

	res.Outputs, err = d.Outputs(ctx, req.StackName)
	if err != nil {
		return nil, err
	}
	d.log.Info().Str("stack", req.StackName).Msg("stack is up to date")
	return res, nil
}

// Destroy deletes the stack and waits for the deletion to finish. A missing
// stack is not an error.
func (d *Deployer) Destroy(ctx context.Context, name string) error {
	existing, err := d.Stack(ctx, name)
	if err != nil {
		return err
	}
	if existing == nil {
		d.log.Info().Str("stack", name).Msg("stack does not exist, nothing to destroy")
		return nil
	}

	started := d.now()
	d.log.Info().Str("stack", name).Msg("deleting stack")
	if _, err := d.api.DeleteStack(ctx, &cloudformation.DeleteStackInput{StackName: aws.String(name)}); err != nil {
		return fmt.Errorf("DeleteStack: %w", err)
	}
	err = cloudformation.NewStackDeleteCompleteWaiter(d.api, func(o *cloudformation.StackDeleteCompleteWaiterOptions) {
		o.MinDelay = d.PollInterval
	}).Wait(ctx, &cloudformation.DescribeStacksInput{StackName: existing.StackId}, d.Timeout)
	if err != nil {
		return d.failure(ctx, name, started, err)
	}
	return nil
}

// Outputs returns the stack's outputs keyed by output name.
func (d *Deployer) Outputs(ctx context.Context, name string) (map[string]string, error) {
	s, err := d.Stack(ctx, name)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
	}
	outputs := make(map[string]string, len(s.Outputs))
	for _, o := range s.Outputs {
		outputs[aws.ToString(o.OutputKey)] = aws.ToString(o.OutputValue)
	}
	return outputs, nil
}

// Resource is one provisioned resource of a stack.
type Resource struct {
	LogicalID  string
	PhysicalID string
	Type       string
	Status     string
	Reason     string
}

// Resources lists the stack's resources sorted by logical ID.
func (d *Deployer) Resources(ctx context.Context, name string) ([]Resource, error) {
	out, err := d.api.DescribeStackResources(ctx, &cloudformation.DescribeStackResourcesInput{StackName: aws.String(name)})
	if err != nil {
		if isNotExist(err) {
			return nil, fmt.Errorf("%s: %w", name, ErrStackNotFound)
		}
		return nil, fmt.Errorf("DescribeStackResources: %w", err)
	}
	resources := make([]Resource, 0, len(out.StackResources))
	for _, r := range out.StackResources {
		resources = append(resources, Resource{
			LogicalID:  aws.ToString(r.LogicalResourceId),
			PhysicalID: aws.ToString(r.PhysicalResourceId),
			Type:       aws.ToString(r.ResourceType),
			Status:     string(r.ResourceStatus),
			Reason:     aws.ToString(r.ResourceStatusReason),
		})
	}
	sort.Slice(resources, func(i, j int) bool { return resources[i].LogicalID < resources[j].LogicalID })
	return resources, nil
}

// FailureReasons returns "<LogicalID>: <reason>" for every failed resource
// event at or after since, oldest first.
func (d *Deployer) FailureReasons(ctx context.Context, name string, since time.Time) ([]string, error) {
	var reasons []string
	var nextToken *string
	for {
		out, err := d.api.DescribeStackEvents(ctx, &cloudformation.DescribeStackEventsInput{
			StackName: aws.String(name),
			NextToken: nextToken,
		})
		if err != nil {
			return nil, fmt.Errorf("DescribeStackEvents: %w", err)
		}
		// Events come newest first.
		for _, ev := range out.StackEvents {
			if ev.Timestamp != nil && ev.Timestamp.Before(since) {
				return reverse(reasons), nil
			}
			reason := aws.ToString(ev.ResourceStatusReason)
			if !strings.HasSuffix(string(ev.ResourceStatus), "_FAILED") || reason == "" || strings.Contains(reason, "cancelled") {
				continue
			}
			reasons = append(reasons, aws.ToString(ev.LogicalResourceId)+": "+reason)
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return reverse(reasons), nil
}

// prepare creates a change set and waits until it can be inspected.
func (d *Deployer) prepare(ctx context.Context, req Request, existing *types.Stack) (*Result, error) {
	csType := types.ChangeSetTypeUpdate
	if existing == nil {
		csType = types.ChangeSetTypeCreate
		// There is no previous value to fall back on.
		if missing := emptyParameters(req.Parameters); len(missing) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", req.StackName, ErrMissingParameters, strings.Join(missing, ", "))
		}
	}
	name := "stackgen-" + d.now().UTC().Format("20060102-150405")

	d.log.Info().Str("stack", req.StackName).Str("changeSet", name).Str("type", string(csType)).Msg("creating change set")
	out, err := d.api.CreateChangeSet(ctx, &cloudformation.CreateChangeSetInput{
		StackName:     aws.String(req.StackName),
		ChangeSetName: aws.String(name),
		ChangeSetType: csType,
		TemplateBody:  aws.String(req.TemplateBody),
		Parameters:    parameters(req.Parameters, existing != nil),
		Tags:          tags(req.Tags),
		Capabilities:  []types.Capability{types.CapabilityCapabilityIam, types.CapabilityCapabilityNamedIam},
		Description:   aws.String("created by stackgen"),
	})
	if err != nil {
		return nil, fmt.Errorf("CreateChangeSet: %w", err)
	}
	res := &Result{
		StackName:   req.StackName,
		ChangeSetID: aws.ToString(out.Id),
		Created:     csType == types.ChangeSetTypeCreate,
	}

	err = cloudformation.NewChangeSetCreateCompleteWaiter(d.api, func(o *cloudformation.ChangeSetCreateCompleteWaiterOptions) {
		o.MinDelay = d.PollInterval
	}).Wait(ctx, &cloudformation.DescribeChangeSetInput{
		StackName:     aws.String(req.StackName),
		ChangeSetName: out.Id,
	}, d.Timeout)

	// From here on res is returned with every error so the caller can
	// remove the change set.
	changes, status, reason, derr := d.describeChangeSet(ctx, req.StackName, res.ChangeSetID)
	if derr != nil {
		return res, derr
	}
	if err != nil || status == types.ChangeSetStatusFailed {
		if isNoChanges(reason) {
			res.NoChanges = true
			return res, nil
		}
		if reason == "" && err != nil {
			reason = err.Error()
		}
		return res, fmt.Errorf("change set %s failed: %s", name, reason)
	}
	res.Changes = changes
	return res, nil
}

func (d *Deployer) describeChangeSet(ctx context.Context, stackName, id string) ([]Change, types.ChangeSetStatus, string, error) {
	var changes []Change
	var status types.ChangeSetStatus
	var reason string
	var nextToken *string
	for {
		out, err := d.api.DescribeChangeSet(ctx, &cloudformation.DescribeChangeSetInput{
			StackName:     aws.String(stackName),
			ChangeSetName: aws.String(id),
			NextToken:     nextToken,
		})
		if err != nil {
			return nil, "", "", fmt.Errorf("DescribeChangeSet: %w", err)
		}
		status = out.Status
		reason = aws.ToString(out.StatusReason)
		for _, c := range out.Changes {
			rc := c.ResourceChange
			if rc == nil {
				continue
			}
			changes = append(changes, Change{
				Action:       string(rc.Action),
				LogicalID:    aws.ToString(rc.LogicalResourceId),
				PhysicalID:   aws.ToString(rc.PhysicalResourceId),
				ResourceType: aws.ToString(rc.ResourceType),
				Replacement:  string(rc.Replacement),
			})
		}
		if out.NextToken == nil {
			break
		}
		nextToken = out.NextToken
	}
	return changes, status, reason, nil
}

func (d *Deployer) failure(ctx context.Context, name string, since time.Time, waitErr error) error {
	reasons, err := d.FailureReasons(ctx, name, since)
	if err != nil || len(reasons) == 0 {
		return fmt.Errorf("waiting for stack %s: %w", name, waitErr)
	}
	for _, r := range reasons {
		d.log.Error().Str("stack", name).Msg(r)
	}
	return fmt.Errorf("stack %s failed: %s: %w", name, strings.Join(reasons, "; "), waitErr)
}

func parameters(values map[string]string, stackExists bool) []types.Parameter {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	params := make([]types.Parameter, 0, len(keys))
	for _, k := range keys {
		p := types.Parameter{ParameterKey: aws.String(k)}
		if values[k] == "" && stackExists {
			p.UsePreviousValue = aws.Bool(true)
		} else {
			p.ParameterValue = aws.String(values[k])
		}
		params = append(params, p)
	}
	return params
}

func emptyParameters(values map[string]string) []string {
	var keys []string
	for k, v := range values {
		if v == "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func tags(values map[string]string) []types.Tag {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([]types.Tag, 0, len(keys))
	for _, k := range keys {
		out = append(out, types.Tag{Key: aws.String(k), Value: aws.String(values[k])})
	}
	return out
}

func isNotExist(err error) bool {
	var apiErr smithy.APIError
	return errors.As(err, &apiErr) &&
		apiErr.ErrorCode() == "ValidationError" &&
		strings.Contains(apiErr.ErrorMessage(), "does not exist")
}

func isNoChanges(reason string) bool {
	return strings.Contains(reason, "didn't contain changes") ||
		strings.Contains(reason, "No updates are to be performed")
}

func reverse(s []string) []string {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
	return s
}
