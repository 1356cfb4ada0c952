// Package pipeline defines the records, errors, and collaborator interfaces
// shared by the fetch, extract, normalize, filter, merge, and aggregate stages.
//
// Data flows leaf-first:
//   - a Fetcher turns a FetchRequest into an immutable RawDocument;
//   - extraction strategies turn a RawDocument into source-specific candidates;
//   - the normalizer, classifier, and merger reduce candidates to ScheduleRow,
//     NoticeItem, and RaceEvent records;
//   - aggregators wrap the outcome in a Result so transport code can always
//     answer with a well-formed payload.
package pipeline
