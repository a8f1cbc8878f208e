// Package reliability retries operations that fail for transient reasons.
//
// Policies decide whether another attempt is worthwhile and how long to
// wait before it. The caller supplies the error classifier, so the same
// policy works for endpoint creation and any other broker operation:
//
//	policy := reliability.NewExponentialBackoff(200*time.Millisecond, 5*time.Second, 2.0, 3)
//	policy.Classify = bus.IsRetryable
//
//	err := reliability.Retry(ctx, policy, func(ctx context.Context) error {
//	    sender, err = bus.CreateSender(ctx, addr)
//	    return err
//	})
package reliability
