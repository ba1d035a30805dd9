package indexmgmt

import (
	"context"
	"fmt"
	"strings"
)

// VerifySearchSupport checks that the connected deployment can serve
// search index commands before any index is created. Atlas clusters on
// M10 or higher and local deployments running mongot support them;
// plain mongod does not. The probe lists the search indexes of the
// given collection, which is cheap and requires no index to exist.
func (m *Manager) VerifySearchSupport(ctx context.Context, collection string) error {
	ctx, span := m.startSpan(ctx, "mongomap.VerifySearchSupport")
	defer span.End()

	m.logger.Debug("checking search index support", "collection", collection)
	if _, err := m.client.ListSearchIndexes(ctx, collection); err != nil {
		if isSearchUnsupported(err) {
			return fmt.Errorf(`the connected MongoDB deployment does not support search indexes.

Search and vector search indexes require one of:
 1. An Atlas cluster of tier M10 or higher
 2. An Atlas local deployment: atlas deployments setup
 3. A self-managed deployment running the mongot search process

Error details: %w`, err)
		}
		return fmt.Errorf("failed to check search index support on %s: %w", collection, err)
	}
	m.logger.Debug("search index support confirmed", "collection", collection)
	return nil
}

// isSearchUnsupported recognizes the server errors produced when the
// $listSearchIndexes stage or the search index commands are missing.
func isSearchUnsupported(err error) bool {
	msg := err.Error()
	for _, marker := range []string{
		"SearchNotEnabled",
		"Unrecognized pipeline stage name: '$listSearchIndexes'",
		"$listSearchIndexes stage is only allowed",
		"no such command: 'createSearchIndexes'",
	} {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}
