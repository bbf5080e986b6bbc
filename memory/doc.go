// Package memory implements the asynchronous long-term memory subsystem of
// the assistant.
//
// After each conversational turn the pipeline decides, off the critical
// path, whether anything said should become a durable fact, how new facts
// merge with prior ones, and when previously judged context should be
// re-injected into the next model call.
//
// Architecture:
//   - LongTermStore: validated keyed-text storage with similarity search
//     over a Backend capability interface (chromem-go locally, any
//     vector-indexed text store in production)
//   - WriteJudge: LLM-mediated classifier compressing a turn into a
//     candidate record
//   - Consolidator: merges a candidate with its nearest existing records
//     (keep / add / replace)
//   - PeriodicJudge: every Nth user turn, synthesizes working context from
//     recent dialogue plus retrieved memories
//   - Pipeline: wires the judges onto the background worker and drains the
//     one-shot injection cache before each model call
//
// Judge model output is treated as an untrusted channel: JSON is extracted
// defensively and every parse failure has a safe default action. No fault
// in this package ever blocks or fails the conversation.
package memory
