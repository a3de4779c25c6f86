package server

const uiIndexCSS = `
    h1 { margin: 0 0 4px; font-size: 24px; }
    h2 { margin: 0 0 12px; font-size: 18px; }
    .layout { display: grid; grid-template-columns: 260px 1fr; gap: 16px; align-items: start; }
    nav ul { list-style: none; margin: 0; padding-left: 12px; }
    nav li { padding: 2px 0; }
    nav .active { font-weight: 700; }
    .panel-error { color: var(--bad); font-weight: 600; }
    .rate-ok { color: var(--ok); font-weight: 600; }
    .rate-warn { color: var(--warn); font-weight: 600; }
    .status-PASS { color: var(--ok); }
    .status-FAIL { color: var(--bad); font-weight: 600; }
    .status-SKIPPED { color: var(--warn); }
    .toolbar { display: flex; gap: 8px; align-items: center; flex-wrap: wrap; margin-bottom: 10px; }
    table { width: 100%; border-collapse: collapse; font-size: 13px; }
    th, td { border-bottom: 1px solid var(--line); text-align: left; padding: 6px; vertical-align: top; }
    th { cursor: pointer; }
    tr.focused { background: #fff6e5; }
    .delta-pos { color: var(--bad); }
    .delta-neg { color: var(--ok); }
    .chart img { max-width: 100%; cursor: crosshair; }
    pre.inspector { white-space: pre-wrap; max-height: 240px; overflow: auto; background: #f7faf8; padding: 8px; border-radius: 8px; }
    @media (max-width: 860px) { .layout { grid-template-columns: 1fr; } }
`
