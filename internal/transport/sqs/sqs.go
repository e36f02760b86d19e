// Package sqs implements the Sink/Source contracts on top of Amazon SQS.
package sqs

import (
	"context"
	"encoding/base64"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"

	"github.com/datenstrom/datenstrom-go/internal/worker"
)

// Sink sends records to a single SQS queue. RawEncoding base64-encodes the
// body first, matching how the raw lane carries binary Thrift/Avro bytes
// through SQS's UTF-8-only message body.
type Sink struct {
	client      *sqs.SQS
	queueURL    string
	rawEncoding bool
}

// NewSink returns a Sink that sends to queueURL. Set rawEncoding for the
// raw lane, where the record body is binary.
func NewSink(sess *session.Session, queueURL string, rawEncoding bool) *Sink {
	return &Sink{client: sqs.New(sess), queueURL: queueURL, rawEncoding: rawEncoding}
}

func (s *Sink) Write(ctx context.Context, body []byte) error {
	text := string(body)
	if s.rawEncoding {
		text = base64.StdEncoding.EncodeToString(body)
	}
	_, err := s.client.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(s.queueURL),
		MessageBody: aws.String(text),
	})
	return err
}

func (s *Sink) Close() error { return nil }

// Source receives messages from a single SQS queue, acking by batch
// deletion.
type Source struct {
	client      *sqs.SQS
	queueURL    string
	rawEncoding bool
}

// NewSource returns a Source that reads from queueURL. Set rawEncoding for
// the raw lane, where the stored body is base64 and must be decoded back
// to binary before the caller sees it.
func NewSource(sess *session.Session, queueURL string, rawEncoding bool) *Source {
	return &Source{client: sqs.New(sess), queueURL: queueURL, rawEncoding: rawEncoding}
}

const maxReceive = 10 // SQS's hard per-call limit

func (s *Source) ReadBatch(ctx context.Context, max int) ([]worker.Message, error) {
	if max > maxReceive {
		max = maxReceive
	}
	out, err := s.client.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.queueURL),
		MaxNumberOfMessages: aws.Int64(int64(max)),
		WaitTimeSeconds:     aws.Int64(5),
	})
	if err != nil {
		return nil, fmt.Errorf("sqs: receive: %w", err)
	}

	msgs := make([]worker.Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		body := []byte(aws.StringValue(m.Body))
		if s.rawEncoding {
			decoded, err := base64.StdEncoding.DecodeString(string(body))
			if err != nil {
				return nil, fmt.Errorf("sqs: decoding raw-lane message: %w", err)
			}
			body = decoded
		}
		msgs = append(msgs, worker.Message{Body: body, Handle: m.ReceiptHandle})
	}
	return msgs, nil
}

func (s *Source) Ack(ctx context.Context, msgs []worker.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	entries := make([]*sqs.DeleteMessageBatchRequestEntry, 0, len(msgs))
	for i, m := range msgs {
		entries = append(entries, &sqs.DeleteMessageBatchRequestEntry{
			Id:            aws.String(fmt.Sprintf("%d", i)),
			ReceiptHandle: m.Handle.(*string),
		})
	}
	_, err := s.client.DeleteMessageBatchWithContext(ctx, &sqs.DeleteMessageBatchInput{
		QueueUrl: aws.String(s.queueURL),
		Entries:  entries,
	})
	if err != nil {
		return fmt.Errorf("sqs: deleting acked batch: %w", err)
	}
	return nil
}
