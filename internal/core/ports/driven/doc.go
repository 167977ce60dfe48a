// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - MetadataStore: Book and chapter records
//   - VectorIndex: Chunk vectors with similarity queries
//   - EmbeddingService: Text to vector (the local provider works offline)
//   - KnowledgeGraph: Concepts and typed relationships
//   - TopicRegistry: Topics and their occurrences in chunks
//   - BookParser: Extracts chapters from book files
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model. Without it, chapter summaries are rule-based.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//   - CurationRepository: Only needed by the curation commands.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
