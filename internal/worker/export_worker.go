// Package worker mirrors expense.created events into a spreadsheet.
package worker

import (
	"context"
	"fmt"

	"expensetracker/internal/amqp"
	"expensetracker/internal/core"
	"expensetracker/internal/log"
	"expensetracker/internal/sheets"
)

// Consumer delivers messages to a handler until its context ends.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.HandlerFunc) error
}

// ExportWorker appends every created expense to the configured sheet.
type ExportWorker struct {
	writer sheets.ExpenseWriter
	logger *log.Logger
}

func NewExportWorker(writer sheets.ExpenseWriter, logger *log.Logger) *ExportWorker {
	if logger == nil {
		logger = log.Nop()
	}
	return &ExportWorker{writer: writer, logger: logger.WithComponent(log.ComponentWorker)}
}

// Run consumes until ctx is cancelled.
func (w *ExportWorker) Run(ctx context.Context, consumer Consumer) error {
	w.logger.InfoContext(ctx, "Export worker started", log.FieldOperation, log.OpStartup)
	return consumer.Consume(ctx, w.HandleExpenseCreated)
}

// HandleExpenseCreated appends the expense carried by msg. Malformed
// payloads are reported as errors so the broker can dead-letter them.
func (w *ExportWorker) HandleExpenseCreated(ctx context.Context, msg *amqp.ExpenseCreatedMessage) error {
	e, err := expenseFromMessage(msg)
	if err != nil {
		return fmt.Errorf("decode expense %d: %w", msg.ExpenseID, err)
	}

	ref, err := w.writer.Append(ctx, e)
	if err != nil {
		return fmt.Errorf("append expense %d: %w", msg.ExpenseID, err)
	}

	w.logger.InfoContext(ctx, "Successfully exported expense",
		log.FieldMessageID, msg.MessageID,
		log.FieldExpenseID, msg.ExpenseID,
		log.FieldSheetsRef, ref,
		log.FieldAmount, msg.Amount,
		log.FieldOperation, log.OpExport)
	return nil
}

func expenseFromMessage(msg *amqp.ExpenseCreatedMessage) (core.Expense, error) {
	amount, err := core.ParseAmount(msg.Amount)
	if err != nil {
		return core.Expense{}, err
	}
	date, err := core.ParseDate(msg.Date)
	if err != nil {
		return core.Expense{}, err
	}
	return core.Expense{
		ID:           msg.ExpenseID,
		UserID:       msg.UserID,
		Username:     msg.Username,
		CategoryName: msg.Category,
		Amount:       amount,
		Description:  msg.Description,
		Date:         date,
	}, nil
}
