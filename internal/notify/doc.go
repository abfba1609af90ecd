// Package notify implements the due-date notification pipeline: a buffered
// queue, a worker-pool runner with a bounded retry policy, and the dispatch
// jobs that revalidate a task before delivering a reminder to the resolved
// actor's contact address.
package notify
