// Package telemetry publishes detection results to dashboard collaborators.
package telemetry

import (
	"errors"

	"github.com/frc2554/targetvision/internal/store"
	"github.com/frc2554/targetvision/internal/target"
)

// DefaultTable is the dashboard table results are written under.
const DefaultTable = "Shuffleboard/Vision"

// Extra keys written alongside the result fields.
const (
	KeyConnected = "connected"
	KeyRunID     = "run_id"
)

// Publisher receives every per-frame result.
type Publisher interface {
	Publish(result target.DetectionResult) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(result target.DetectionResult) error

// Publish implements Publisher.
func (f PublisherFunc) Publish(result target.DetectionResult) error {
	return f(result)
}

// Multi fans a result out to every publisher. All publishers are called even
// when one fails; the errors are joined.
func Multi(publishers ...Publisher) Publisher {
	return PublisherFunc(func(result target.DetectionResult) error {
		var errs []error
		for _, p := range publishers {
			if p == nil {
				continue
			}
			if err := p.Publish(result); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

// TablePublisher writes results into a store table, keeping only the latest
// value of each field.
type TablePublisher struct {
	entries *store.EntryRepository
	table   string
}

// NewTablePublisher publishes into table of st. An empty table means DefaultTable.
func NewTablePublisher(st *store.Store, table string) *TablePublisher {
	if table == "" {
		table = DefaultTable
	}
	return &TablePublisher{entries: st.Entries(), table: table}
}

// Table returns the table name results are written under.
func (p *TablePublisher) Table() string {
	return p.table
}

// Connect marks the table as connected, records the process run id and
// resets the result fields to "no target", so a table kept from an earlier
// run never shows that run's detection.
func (p *TablePublisher) Connect(runID string) error {
	values := target.NoTarget().Fields()
	values[KeyConnected] = true
	values[KeyRunID] = runID
	return p.entries.PutMany(p.table, values)
}

// Disconnect clears the connected flag.
func (p *TablePublisher) Disconnect() error {
	return p.entries.Put(p.table, KeyConnected, false)
}

// Publish implements Publisher.
func (p *TablePublisher) Publish(result target.DetectionResult) error {
	return p.entries.PutMany(p.table, result.Fields())
}
