package server

const uiPageChromeCSS = `
    :root {
      --bg: #f2f7f4;
      --bg2: #d9efe2;
      --card: #ffffff;
      --ink: #1f2a24;
      --muted: #5f6f67;
      --ok: #1f8a4c;
      --warn: #a56a00;
      --bad: #b23a48;
      --accent: #157f66;
      --line: #c4ddd0;
    }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: "Avenir Next", "Segoe UI", sans-serif;
      color: var(--ink);
      background: radial-gradient(circle at 20% 0%, var(--bg2), var(--bg));
    }
    main { max-width: 1280px; margin: 24px auto; padding: 0 16px; }
    .card {
      background: var(--card);
      border: 1px solid var(--line);
      border-radius: 12px;
      padding: 16px;
      margin-bottom: 16px;
      box-shadow: 0 8px 24px rgba(21,127,102,.08);
    }
    .muted { color: var(--muted); font-size: 13px; }
    a { color: var(--accent); text-decoration: none; cursor: pointer; }
    a:hover { text-decoration: underline; }
    button, select {
      border: 1px solid var(--line);
      border-radius: 8px;
      padding: 6px 10px;
      font-size: 14px;
      background: #ffffff;
      color: var(--accent);
      cursor: pointer;
    }
    button:hover:not(:disabled) { background: #f4fbf7; }
    button:disabled { opacity: 0.65; cursor: default; }
`
