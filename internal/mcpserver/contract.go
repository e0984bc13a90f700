package mcpserver

// ItemFormatContract describes the notebook item types for LLM consumers.
const ItemFormatContract = `# Raido Item Format

A notebook holds named items of exactly three types.

## console

A SQL console. Plain SQL text; a leading ` + "`-- comment`" + ` line is used as
the display title.

## script

A saved SQL script. Same conventions as a console.

## note

Markdown text with optional YAML frontmatter:

` + "```" + `markdown
---
title: Human-readable title    # optional; falls back to the first H1
tags: [tag-one, tag-two]       # optional; inline #tags also count
---

Body in standard Markdown.
` + "```" + `

## Rules

1. Item names are unique within a notebook and may contain spaces.
2. Items are identified by name in all tools; renames keep the open
   window, only the name changes.
3. ` + "`read_item`" + ` returns the live (unsaved) text when the item's window is
   open, otherwise the text last flushed to the notebook.
`
