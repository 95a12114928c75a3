package service

import (
	"context"
	"log"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DeliveryReport summarises a notification fan-out. The mutation that
// triggered it is already committed whatever the outcome.
type DeliveryReport struct {
	AllSent bool     `json:"allSent"`
	Sent    int      `json:"sent"`
	Failed  []string `json:"failed,omitempty"`
}

// fanOut calls send for every recipient with at most limit in flight. Every
// recipient is attempted; failures are logged and listed in the report.
func fanOut(ctx context.Context, limit int, recipients []string, send func(ctx context.Context, to string) error) DeliveryReport {
	if limit <= 0 {
		limit = 1
	}
	var (
		mu     sync.Mutex
		failed []string
		sent   int
	)
	g := new(errgroup.Group)
	g.SetLimit(limit)
	for _, to := range recipients {
		g.Go(func() error {
			err := send(ctx, to)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Notification to %s failed: %v", to, err)
				failed = append(failed, to)
				return nil
			}
			sent++
			return nil
		})
	}
	_ = g.Wait()

	sort.Strings(failed)
	return DeliveryReport{AllSent: len(failed) == 0, Sent: sent, Failed: failed}
}
