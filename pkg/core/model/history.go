// Copyright (c) 2024 Behnam Momeni
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package model

import (
	"fmt"
	"slices"
)

// EntryStatus describes how a registered DDVersion was published.
type EntryStatus string

// These constants list the possible EntryStatus values.
const (
	// StatusPublished marks a version which was published by the
	// release that its number encodes.
	StatusPublished EntryStatus = "published"

	// StatusAbandoned marks a version which was never published in
	// a GA release.
	StatusAbandoned EntryStatus = "abandoned"

	// StatusMisassigned marks a version which was published by another
	// release than the one its number encodes.
	StatusMisassigned EntryStatus = "misassigned"
)

// Entry is one registered data dictionary version. PublishedBy is the
// release which first published the Version schema and Changes lists
// the performance_schema tables changes which it introduced.
type Entry struct {
	Version     DDVersion   `json:"version"`
	PublishedBy string      `json:"published_by"`
	Status      EntryStatus `json:"status"`
	Changes     []string    `json:"changes"`
}

func (e Entry) clone() Entry {
	e.Changes = slices.Clone(e.Changes)
	return e
}

// Release returns the decoded form of the entry version.
func (e Entry) Release() Release {
	return e.Version.Release()
}

// history lists all versions which were ever published in the data
// dictionary, in their publication order. Positions in this slice
// (not the numeric versions) define their ordering.
var history = []Entry{
	{1, "8.0.3", StatusAbandoned, []string{
		"introduced by WL#7900, never published in a GA version",
	}},
	{80004, "8.0.4", StatusPublished, []string{
		"setup_threads (created)",
		"setup_instruments (modified)",
		"variables_info (modified)",
		"setup_timers (removed)",
		"metadata_locks (modified, added column COLUMN_NAME)",
		"replication_connection_configuration (modified)",
		"instance_log_resource (created)",
	}},
	{80005, "8.0.5", StatusAbandoned, []string{
		"all, changed UTF8 (aka UTF8MB3) to UTF8MB4",
	}},
	{80006, "8.0.6", StatusAbandoned, []string{
		"variables_info.set_time precision changed from 0 to 6",
	}},
	{80011, "8.0.11", StatusPublished, []string{
		"version bump from 8.0.6, versions [8.0.5 - 8.0.10] abandoned",
		"instance_log_resource was renamed to log_resource",
	}},
	{80014, "8.0.14", StatusPublished, []string{
		"events_statements_current, added column QUERY_ID",
		"events_statements_history, added column QUERY_ID",
		"events_statements_history_long, added column QUERY_ID",
	}},
	{80015, "8.0.15", StatusPublished, []string{
		"keyring_keys (created)",
	}},
	{80017, "8.0.16", StatusMisassigned, []string{
		"claimed by 8.0.16 due to a bad merge (WL#12720)",
		"replication_connection_configuration, added column NETWORK_NAMESPACE",
	}},
	{800171, "8.0.17", StatusPublished, []string{
		"numbered 800171 so that 8.0.16 (80017) may be upgraded",
		"WL#12571 increases the HOST name length from 60 to 255",
	}},
	{80018, "8.0.18", StatusPublished, []string{
		"replication_connection_configuration, added columns MASTER_COMPRESSION_ALGORITHMS and MASTER_COMPRESSION_LEVEL",
		"replication_applier_configuration, added column PRIVILEGE_CHECKS_USER",
	}},
	{80019, "8.0.19", StatusPublished, []string{
		"replication_connection_configuration, added column TLS_CIPHERSUITES",
		"replication_applier_configuration, added column REQUIRE_ROW_FORMAT",
	}},
	{80020, "8.0.20", StatusPublished, []string{
		"WL#3549 created binary_log_transaction_compression_stats",
		"replication_applier_configuration, added column REQUIRE_TABLE_PRIMARY_KEY_CHECK",
	}},
	{80021, "8.0.21", StatusPublished, []string{
		"tls_channel_status (created)",
		"replication_connection_configuration, added column SOURCE_CONNECTION_AUTO_FAILOVER",
	}},
	{80022, "8.0.22", StatusPublished, []string{
		"WL#9090 created processlist",
		"WL#13681 created error_log",
	}},
	{80023, "8.0.23", StatusPublished, []string{
		"WL#12819 replication_applier_configuration, added columns ASSIGN_GTIDS_TO_ANONYMOUS_TRANSACTIONS_TYPE and ASSIGN_GTIDS_TO_ANONYMOUS_TRANSACTIONS_VALUE",
		"replication_asynchronous_connection_failover, added column MANAGED_NAME",
		"replication_asynchronous_connection_failover_managed (created)",
	}},
	{80023001, "8.0.23-001", StatusPublished, []string{
		"session_query_attrs (created)",
	}},
	{80023002, "8.0.23-002", StatusPublished, []string{
		"username columns widened to 80 chars (upstream has 32) in accounts, ees_by_account_by_error, ees_by_user_by_error, esgs_by_account_by_event_name, esgs_by_user_by_event_name, esms_by_account_by_event_name, esms_by_user_by_event_name, ets_by_account_by_event_name, ets_by_user_by_event_name, ews_by_account_by_event_name, ews_by_user_by_event_name, replication_connection_configuration, setup_actors, status_by_account, status_by_user, threads, users, and variables_info",
	}},
	{80023003, "8.0.23-003", StatusPublished, []string{
		"table_statistics_per_table (created)",
	}},
	{80023004, "8.0.23-004", StatusPublished, []string{
		"added table for queries_used and queries_empty",
	}},
	{80023005, "8.0.23-005", StatusPublished, []string{
		"added cpu time to statement statistics",
	}},
	{80023006, "8.0.23-006", StatusPublished, []string{
		"table_statistics_per_table, added columns IO_WRITE_BYTES, IO_WRITE_REQUESTS, IO_READ_BYTES, and IO_READ_REQUESTS",
	}},
	{80023007, "8.0.23-007", StatusPublished, []string{
		"events_statements_summary_by_all (created)",
	}},
	{80023008, "8.0.23-008", StatusPublished, []string{
		"added temp table bytes written to statement statistics",
		"added filesort bytes written to statement statistics",
		"added index dive count to statement statistics",
		"added index dive cpu time to statement statistics",
		"added compilation cpu time to statement statistics",
		"added elapsed time to statement statistics",
	}},
	{80023009, "8.0.23-009", StatusPublished, []string{
		"replica_statistics (created)",
	}},
	{80023010, "8.0.23-010", StatusPublished, []string{
		"added client attributes",
	}},
	{80023011, "8.0.23-011", StatusPublished, []string{
		"write_statistics (created)",
		"write_throttling_rules (created)",
		"write_throttling_log (created)",
	}},
	{80023012, "8.0.23-012", StatusPublished, []string{
		"sql_findings (created)",
		"SQL_FINDINGS.LAST_RECORDED type changed to bigint",
	}},
	{80023013, "8.0.23-013", StatusPublished, []string{
		"threads, added column THREAD_PRIORITY",
	}},
	{80023014, "8.0.23-014", StatusPublished, []string{
		"added skipped count to statement statistics",
	}},
	{80023015, "8.0.23-015", StatusPublished, []string{
		"column_statistics (created)",
	}},
	{80023016, "8.0.23-016", StatusPublished, []string{
		"statements tables, added column SUM_FILESORT_DISK_USAGE",
		"statements tables, added column SUM_TMP_TABLE_DISK_USAGE",
	}},
	{80023017, "8.0.23-017", StatusPublished, []string{
		"write_throttling_rules, added column throttle_rate",
	}},
	{80023018, "8.0.23-018", StatusPublished, []string{
		"index_statistics (created)",
	}},
	{80023019, "8.0.23-019", StatusPublished, []string{
		"SQL_FINDINGS.MESSAGE widened from 256 to 512",
	}},
	{80023020, "8.0.23-020", StatusPublished, []string{
		"column_statistics, added column TABLE_INSTANCE",
	}},
	{80023021, "8.0.23-021", StatusPublished, []string{
		"sql_text (created)",
	}},
	{80023022, "8.0.23-022", StatusPublished, []string{
		"SQL_FINDINGS.QUERY_TEXT type changed to longtext",
	}},
}

// positions maps each registered version to its index in history.
var positions = func() map[DDVersion]int {
	m := make(map[DDVersion]int, len(history))
	for i, e := range history {
		if _, dup := m[e.Version]; dup {
			panic(fmt.Sprintf("duplicate registered version %d", e.Version))
		}
		m[e.Version] = i
	}
	return m
}()

// History returns a deep copy of all registered versions in their
// publication order.
func History() []Entry {
	h := make([]Entry, len(history))
	for i, e := range history {
		h[i] = e.clone()
	}
	return h
}

// Lookup finds the registered Entry of v.
func Lookup(v DDVersion) (Entry, bool) {
	i, ok := positions[v]
	if !ok {
		return Entry{}, false
	}
	return history[i].clone(), true
}

// Position returns the index of v in the publication order, or -1 if v
// is not registered.
func Position(v DDVersion) int {
	if i, ok := positions[v]; ok {
		return i
	}
	return -1
}

// Latest returns the last published Entry.
func Latest() Entry {
	return history[len(history)-1].clone()
}

// UnregisteredError indicates that a DDVersion is not present in the
// history, so it cannot be ordered against other versions.
type UnregisteredError DDVersion

// Error implements the error interface.
func (ue UnregisteredError) Error() string {
	return fmt.Sprintf("version %d is not registered", DDVersion(ue))
}

// Precedes reports whether a was published before b.
// Numeric comparison of two versions is not reliable (e.g., 800171 was
// published before 80018), so both versions must be registered and
// their publication positions are compared instead.
func Precedes(a, b DDVersion) (bool, error) {
	pa, pb := Position(a), Position(b)
	switch {
	case pa < 0:
		return false, UnregisteredError(a)
	case pb < 0:
		return false, UnregisteredError(b)
	}
	return pa < pb, nil
}
