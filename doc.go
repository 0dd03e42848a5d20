// Package remoteop mediates reads and writes against a remote document store.
// Every operation is identified by a caller-chosen key and runs at most once per
// key at a time; concurrent callers for the same key share one execution and one
// outcome. Successful results can be cached for a TTL, and failed attempts are
// retried with capped exponential backoff when the failure looks transient.
//
// Components:
//   - Executor[V]: cache lookup, in-flight dedup, retry/backoff around Work[V].
//   - Connector: gate consulted before each attempt (see package connectivity).
//   - Provider + Codec[V]: optional second cache tier shared across processes.
//   - GenStore: per-key generations. ClearCache bumps them so an execution that
//     was already running cannot repopulate a key that was cleared meanwhile.
//
// Keys:
//
//	op:<ns>:<key>  - second-tier entries (the memory table uses the bare key)
//
// Typical use:
//
//	exec, _ := remoteop.New[Profile](remoteop.Options[Profile]{
//	    Namespace: "profile",
//	    Connector: tracker,
//	})
//	p, err := exec.Execute(ctx, "profile-get-42", loadProfile, remoteop.WithTTL(10*time.Minute))
//	...
//	_ = exec.ClearCache(ctx, "profile") // after a write
package remoteop
