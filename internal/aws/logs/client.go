package logs

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	cwltypes "github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// CloudWatchLogsAPI defines the subset of CloudWatch Logs API we use.
type CloudWatchLogsAPI interface {
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
}

// Client wraps the CloudWatch Logs API.
type Client struct {
	api CloudWatchLogsAPI
}

// NewClient creates a new logs client.
func NewClient(api CloudWatchLogsAPI) *Client {
	return &Client{api: api}
}

// LatestStream returns the most recently written stream of a group, or ""
// when the group has no streams yet.
func (c *Client) LatestStream(ctx context.Context, logGroup string) (string, error) {
	out, err := c.api.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(logGroup),
		OrderBy:      cwltypes.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(1),
	})
	if err != nil {
		return "", fmt.Errorf("DescribeLogStreams(%s): %w", logGroup, err)
	}
	if len(out.LogStreams) == 0 {
		return "", nil
	}
	return aws.ToString(out.LogStreams[0].LogStreamName), nil
}

// GetLatestLogEvents retrieves the most recent log events from a stream.
func (c *Client) GetLatestLogEvents(ctx context.Context, logGroup, logStream string, limit int) ([]LogEvent, string, error) {
	out, err := c.api.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(logStream),
		Limit:         aws.Int32(int32(limit)),
		StartFromHead: aws.Bool(false),
	})
	if err != nil {
		return nil, "", fmt.Errorf("GetLogEvents: %w", err)
	}
	return toEvents(out.Events), aws.ToString(out.NextForwardToken), nil
}

// GetLogEventsSince retrieves new log events using a forward token from a previous call.
func (c *Client) GetLogEventsSince(ctx context.Context, logGroup, logStream, forwardToken string) ([]LogEvent, string, error) {
	out, err := c.api.GetLogEvents(ctx, &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(logGroup),
		LogStreamName: aws.String(logStream),
		NextToken:     aws.String(forwardToken),
		StartFromHead: aws.Bool(true),
	})
	if err != nil {
		return nil, "", fmt.Errorf("GetLogEvents: %w", err)
	}

	token := aws.ToString(out.NextForwardToken)
	// Keep the position when the response carries no token.
	if token == "" {
		token = forwardToken
	}
	return toEvents(out.Events), token, nil
}

func toEvents(in []cwltypes.OutputLogEvent) []LogEvent {
	events := make([]LogEvent, len(in))
	for i, e := range in {
		events[i] = LogEvent{
			Timestamp: time.UnixMilli(aws.ToInt64(e.Timestamp)),
			Message:   aws.ToString(e.Message),
		}
	}
	return events
}
