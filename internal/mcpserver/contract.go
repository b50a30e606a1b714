package mcpserver

// NoteFormatContract describes the Markdown shape catatan notes are
// exported in and accepted from.
const NoteFormatContract = `# Catatan Note Format

Notes are exchanged as Markdown with a YAML header. On import the body is
split into editor blocks and saved like an edit from the app.

## Structure

` + "```" + `markdown
---
title: Belanja mingguan          # OPTIONAL – falls back to the first heading
progress: belumMulai             # OPTIONAL – belumMulai | sedangDikerjakan | selesai
category: medium                 # OPTIONAL – prioritas | medium | santai
target: "12"                     # OPTIONAL – non-negative whole number, quoted
due: 2025-01-20T09:30            # OPTIONAL – local date-time, minute precision
---

# Heading

A paragraph. **Whole-paragraph bold** and _whole-paragraph italic_ are kept.

- bullet item
- [ ] open checklist item
- [x] done checklist item

![](/images/0b7c5f0e-9c1e-4a43-9a53-3f0d2f1f5e11.png)
` + "```" + `

## Rules

1. Headings of any level become heading blocks.
2. Bold or italic only survive when they cover the whole block.
3. Checklist items may appear anywhere; they are stored as one group at the
   end of the note, in the order written.
4. Images must already be uploaded. Use the ` + "`" + `upload_image` + "`" + ` tool and
   paste its ` + "`" + `markdownImage` + "`" + ` field. Other image URLs are dropped.
5. Blank paragraphs are dropped.
6. Encoding is UTF-8.
`
