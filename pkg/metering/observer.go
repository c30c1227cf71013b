package metering

import "datacap-hq/datacap/pkg/metering/account"

// Observer receives the post-mutation account snapshot after every state
// change. At most one observer is registered at a time; registering a new
// one replaces the previous. Delivery is synchronous, on the goroutine
// that performed the mutation, at most once per mutation, with no
// buffering or replay of updates missed while unregistered.
type Observer interface {
	OnAccountUpdated(acct account.Account)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(acct account.Account)

// OnAccountUpdated implements Observer.
func (f ObserverFunc) OnAccountUpdated(acct account.Account) {
	f(acct)
}
