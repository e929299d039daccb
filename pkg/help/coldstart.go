package help

const ColdstartYAML = `# fontshim Quick Start

what_it_does: |
  Rewrites font-family declarations across a page's stylesheets so a
  flag-emoji font ('Twemoji Country Flags' by default) is layered ahead of
  every original font stack, without discarding the author's fonts.

commands:
  basic_apply: |
    fontshim apply --urls "https://example.com"

  multiple_pages: |
    fontshim apply --urls "https://example.com,https://example.org" --workers 4

  force_refetch: |
    fontshim apply --urls "https://example.com" --force-fetch

  inspect_font_rules: |
    fontshim inspect --url "https://example.com"

  list_runs: |
    fontshim runs

  run_details: |
    fontshim run 5

config: |
  Optional fontshim.yaml in the working directory:
    replacement_font: "Twemoji Country Flags"
    debug: false

notes:
  - Cross-origin stylesheets are fetched once per engine lifetime and cached.
  - Rewritten pages land under fontshim-results/rewritten/.
  - Inline style="font-family: ..." declarations are reinforced with
    !important so the override never shadows explicit per-element intent.
`
