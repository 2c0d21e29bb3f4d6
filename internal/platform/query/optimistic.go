package query

import "context"

// Delete applies the optimistic delete protocol for one row:
//
//  1. Cancel in-flight fetches under the prefix so a stale response cannot
//     overwrite the optimistic state.
//  2. Snapshot every matching cached entry.
//  3. Drop the row from each cached page and decrement its total count.
//  4. Call remove; on failure restore every snapshot verbatim.
//  5. Invalidate the prefix either way to reconcile with the server.
//
// Steps 1-3 happen atomically with respect to cache readers.
func Delete(ctx context.Context, c *Cache, p Prefix, id string, remove func(ctx context.Context) error) error {
	snaps := c.stageDelete(p, id)
	err := remove(ctx)
	if err != nil {
		c.restore(snaps)
	}
	c.Invalidate(p)
	return err
}
