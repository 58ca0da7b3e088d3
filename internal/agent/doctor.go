package agent

import (
	"context"
	"fmt"
)

// SyncAll runs Sync for every kind in AllKinds order against the given
// per-kind settings, used by both the `up`/`rebuild`/`start` aggregate
// warning path and the `agents sync` command, which exposes the full
// per-agent result set directly (§4.6 "Failure policy").
func (inj *Injector) SyncAll(ctx context.Context, settingsByKind map[Kind]Settings, hostEnv map[string]string) []*SyncResult {
	results := make([]*SyncResult, 0, len(AllKinds))
	for _, kind := range AllKinds {
		settings := settingsByKind[kind]
		results = append(results, inj.Sync(ctx, kind, settings, hostEnv))
	}
	return results
}

// Summarize renders the "Agent injection completed with N warning(s)"
// message §4.6's "Failure policy" specifies for `up`/`rebuild`/`start`,
// aggregating every per-agent warning into one line. Returns ok=false when
// there is nothing to report.
func Summarize(results []*SyncResult) (msg string, ok bool) {
	total := 0
	for _, r := range results {
		total += len(r.Warnings)
	}
	if total == 0 {
		return "", false
	}
	return fmt.Sprintf("Agent injection completed with %d warning(s). Run 'devc agents doctor' for details.", total), true
}
