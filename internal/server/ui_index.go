package server

const indexHTML = `<!doctype html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1" />
  <title>reportviewer</title>
  <style>
` + uiPageChromeCSS + uiIndexCSS + `
  </style>
</head>
<body>
  <main>
    <div class="layout">
      <nav class="card" id="tree"><p class="muted">Loading reports...</p></nav>
      <section>
        <div class="card" id="summary"><p class="muted">Select a test type.</p></div>
        <div class="card" id="detail" hidden></div>
      </section>
    </div>
  </main>
  <script>
` + uiIndexJS + `
  </script>
</body>
</html>`
