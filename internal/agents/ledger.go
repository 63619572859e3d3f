package agents

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"github.com/mototrade-erp/mototrade/internal/shared"
)

// AppendEntryTx appends one ledger entry inside an existing transaction.
// The agent row is locked first so the denormalized balance and the entry's
// BalanceAfter snapshot stay consistent under concurrent postings. Callers
// from other modules (transfers, sales void) reuse this so every balance
// mutation flows through a single code path.
func AppendEntryTx(ctx context.Context, tx pgx.Tx, input EntryInput) (Entry, error) {
	if input.AgentID <= 0 {
		return Entry{}, errors.New("agents: agent id required")
	}
	if err := validateAmounts(input); err != nil {
		return Entry{}, err
	}

	var balance decimal.Decimal
	var isActive bool
	err := tx.QueryRow(ctx,
		`SELECT balance, is_active FROM agents WHERE id = $1 FOR UPDATE`, input.AgentID).
		Scan(&balance, &isActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, shared.ErrNotFound
		}
		return Entry{}, fmt.Errorf("agents: lock agent %d: %w", input.AgentID, err)
	}
	if !isActive && input.Type != EntryPayment && input.Type != EntryAdjustment && input.Type != EntryReversal {
		return Entry{}, ErrAgentInactive
	}

	newBalance := balance.Add(input.Debit).Sub(input.Credit)
	now := time.Now().UTC()

	var entry Entry
	err = tx.QueryRow(ctx, `
		INSERT INTO agent_ledger_entries
			(agent_id, entry_type, debit, credit, balance_after, ref_kind, ref_id, note, reversed_entry_id, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, agent_id, entry_type, debit, credit, balance_after, ref_kind, ref_id, note, reversed_entry_id, created_by, created_at`,
		input.AgentID, input.Type, input.Debit, input.Credit, newBalance,
		input.RefKind, input.RefID, input.Note, input.ReversedEntryID, input.CreatedBy, now).
		Scan(&entry.ID, &entry.AgentID, &entry.Type, &entry.Debit, &entry.Credit, &entry.BalanceAfter,
			&entry.RefKind, &entry.RefID, &entry.Note, &entry.ReversedEntryID, &entry.CreatedBy, &entry.CreatedAt)
	if err != nil {
		return Entry{}, fmt.Errorf("agents: insert entry: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`UPDATE agents SET balance = $2, updated_at = $3 WHERE id = $1`,
		input.AgentID, newBalance, now); err != nil {
		return Entry{}, fmt.Errorf("agents: update balance: %w", err)
	}

	return entry, nil
}

// ReverseByRefTx appends sign-inverted copies of every non-reversal entry
// that references (refKind, refID). Entries are never deleted; a second
// reversal of the same reference is rejected.
func ReverseByRefTx(ctx context.Context, tx pgx.Tx, refKind, refID, note string, actorID int64) ([]Entry, error) {
	rows, err := tx.Query(ctx, `
		SELECT id, agent_id, entry_type, debit, credit
		FROM agent_ledger_entries
		WHERE ref_kind = $1 AND ref_id = $2
		ORDER BY id`, refKind, refID)
	if err != nil {
		return nil, err
	}
	type pending struct {
		id            int64
		agentID       int64
		entryType     EntryType
		debit, credit decimal.Decimal
	}
	var originals []pending
	hasReversal := false
	for rows.Next() {
		var p pending
		if err := rows.Scan(&p.id, &p.agentID, &p.entryType, &p.debit, &p.credit); err != nil {
			rows.Close()
			return nil, err
		}
		if p.entryType == EntryReversal {
			hasReversal = true
			continue
		}
		originals = append(originals, p)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if hasReversal {
		return nil, fmt.Errorf("agents: reference %s/%s already reversed", refKind, refID)
	}

	var out []Entry
	for _, p := range originals {
		id := p.id
		entry, err := AppendEntryTx(ctx, tx, EntryInput{
			AgentID:         p.agentID,
			Type:            EntryReversal,
			Debit:           p.credit,
			Credit:          p.debit,
			RefKind:         refKind,
			RefID:           refID,
			Note:            note,
			ReversedEntryID: &id,
			CreatedBy:       actorID,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, entry)
	}
	return out, nil
}

// RecomputeBalanceTx re-derives the agent balance from the ledger and
// returns stored vs computed. It does not repair; the integrity job reports.
func RecomputeBalanceTx(ctx context.Context, tx pgx.Tx, agentID int64) (stored, computed decimal.Decimal, err error) {
	err = tx.QueryRow(ctx, `SELECT balance FROM agents WHERE id = $1`, agentID).Scan(&stored)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return stored, computed, shared.ErrNotFound
		}
		return stored, computed, err
	}
	err = tx.QueryRow(ctx, `
		SELECT COALESCE(SUM(debit - credit), 0)
		FROM agent_ledger_entries WHERE agent_id = $1`, agentID).Scan(&computed)
	return stored, computed, err
}

func validateAmounts(input EntryInput) error {
	if input.Debit.IsNegative() || input.Credit.IsNegative() {
		return ErrInvalidAmount
	}
	debitSet := input.Debit.IsPositive()
	creditSet := input.Credit.IsPositive()
	if debitSet == creditSet {
		return fmt.Errorf("%w: exactly one of debit/credit must be positive", ErrInvalidAmount)
	}
	return nil
}
