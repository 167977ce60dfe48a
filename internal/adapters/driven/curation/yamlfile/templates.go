package yamlfile

const metadataTemplate = `# Book Metadata
slug: %s
title: ""  # Full book title
author: ""  # Author name(s)
short_name: ""  # Short name for citations
`

const philosophyTemplate = `# Core Philosophy
# Capture the book's fundamental worldview and key ideas

core_belief: ""  # The central belief or thesis

key_ideas:
  - ""  # Key idea 1
  - ""  # Key idea 2

source:
  chapter: ""
  location: null  # Kindle location or page number
  quote: ""
`

const principlesTemplate = `# Key Principles
# Important concepts and mental models from the book

principles:
  - id: ""  # Unique identifier (e.g., slug-principle-001)
    title: ""
    summary: >
      Multi-line summary of the principle.
    topics:
      - ""  # Related topic from registry
    concepts:
      - ""  # Related concept for knowledge graph
    source:
      chapter: ""
      location: null
      quote: ""
`

const strategiesTemplate = `# Actionable Strategies
# Specific techniques and approaches from the book

strategies:
  - id: ""  # Unique identifier (e.g., slug-strategy-001)
    title: ""
    summary: >
      Brief description of the strategy.
    steps:
      - ""  # Step 1
      - ""  # Step 2
    topics:
      - ""  # Related topic
    concepts:
      - ""  # Related concept
    source:
      chapter: ""
      location: null
      quote: ""
`
