package server

const uiIndexJS = `
    const state = { tree: null, view: null, filter: 'all', sort: '', order: '', suite: '', test: '' };

    function esc(v) {
      return String(v == null ? '' : v).replace(/[&<>"']/g, c => ({'&':'&amp;','<':'&lt;','>':'&gt;','"':'&quot;',"'":'&#39;'}[c]));
    }

    function pathQuery(p) {
      const keys = ['component', 'testType', 'version', 'build', 'backend'];
      const parts = [];
      for (const k of keys) {
        if (!p[k]) break;
        parts.push(encodeURIComponent(k) + '=' + encodeURIComponent(p[k]));
      }
      return parts.join('&');
    }

    async function apiJSON(url) {
      const res = await fetch(url, { cache: 'no-store' });
      const body = await res.json().catch(() => ({}));
      if (!res.ok) throw new Error(body.error || ('HTTP ' + res.status));
      return body;
    }

    function viewParams() {
      const parts = ['filter=' + encodeURIComponent(state.filter)];
      if (state.sort) parts.push('sort=' + encodeURIComponent(state.sort), 'order=' + encodeURIComponent(state.order || 'asc'));
      if (state.suite || state.test) parts.push('suite=' + encodeURIComponent(state.suite), 'test=' + encodeURIComponent(state.test));
      return parts.join('&');
    }

    function applyHistory(h) {
      if (!h || h.action === 'none') return;
      const url = h.query ? '?' + h.query : location.pathname;
      if (h.action === 'push' && ('?' + h.query) !== location.search) {
        history.pushState({ query: h.query }, '', url);
      } else {
        history.replaceState({ query: h.query }, '', url);
      }
    }

    async function loadView(query, push, extra) {
      let url = '/api/v1/view?' + query + '&' + viewParams();
      if (push) url += '&nav=push';
      if (extra) url += '&' + extra;
      try {
        const view = await apiJSON(url);
        state.view = view;
        applyHistory(view.history);
        render();
      } catch (err) {
        document.getElementById('summary').innerHTML = '<p class="panel-error">' + esc(err.message) + '</p>';
      }
    }

    function navigate(p) {
      state.suite = '';
      state.test = '';
      loadView(pathQuery(p), true);
    }

    async function chartClick(backend, index) {
      const p = state.view.path;
      const q = pathQuery({ component: p.component, testType: p.testType, version: p.version });
      try {
        const view = await apiJSON('/api/v1/chart-click?' + q + '&backend=' + encodeURIComponent(backend) + '&index=' + index);
        state.view = view;
        applyHistory(view.history);
        render();
      } catch (err) {
        document.getElementById('summary').insertAdjacentHTML('afterbegin', '<p class="panel-error">' + esc(err.message) + '</p>');
      }
    }

    function renderTree() {
      const el = document.getElementById('tree');
      if (!state.tree) return;
      const p = (state.view && state.view.path) || {};
      let html = '<h2>Reports</h2><ul>';
      for (const c of state.tree.components) {
        html += '<li><strong>' + esc(c.name) + '</strong><ul>';
        for (const t of c.test_types) {
          const active = p.component === c.name && p.testType === t.name;
          html += '<li><a class="' + (active ? 'active' : '') + '" data-c="' + esc(c.name) + '" data-t="' + esc(t.name) + '">' + esc(t.name) + '</a>';
          if (active && state.view.versions) {
            html += '<ul>';
            for (const v of state.view.versions) {
              const cls = p.version === v.version ? 'active' : '';
              html += '<li><a class="' + cls + '" data-c="' + esc(c.name) + '" data-t="' + esc(t.name) + '" data-v="' + esc(v.version) + '">' + esc(v.version) + '</a>';
              if (v.error) html += ' <span class="panel-error" title="' + esc(v.error) + '">!</span>';
              html += '</li>';
            }
            html += '</ul>';
          }
          html += '</li>';
        }
        html += '</ul></li>';
      }
      el.innerHTML = html + '</ul>';
      el.querySelectorAll('a[data-c]').forEach(a => a.addEventListener('click', () => {
        navigate({ component: a.dataset.c, testType: a.dataset.t, version: a.dataset.v || '' });
      }));
    }

    function panelError(name) {
      const errs = state.view.errors || {};
      return errs[name] ? '<p class="panel-error">' + esc(errs[name]) + '</p>' : '';
    }

    function panelNotice(name) {
      const notices = state.view.notices || {};
      return notices[name] ? '<p class="muted">' + esc(notices[name]) + '</p>' : '';
    }

    function renderSummary() {
      const v = state.view;
      const p = v.path || {};
      const el = document.getElementById('summary');
      let html = panelError('nav') + panelError('summary');
      if (v.level === 'root') {
        el.innerHTML = html + '<p class="muted">Select a test type.</p>';
        return;
      }
      if (v.level === 'test_type') {
        html += '<h1>' + esc(p.component) + ' / ' + esc(p.testType) + '</h1><table><tr><th>Version</th><th>Builds</th><th>Latest</th></tr>';
        for (const item of v.versions || []) {
          html += '<tr><td><a data-v="' + esc(item.version) + '">' + esc(item.version) + '</a></td><td>' + (item.error ? '<span class="panel-error">' + esc(item.error) + '</span>' : item.builds) + '</td><td>' + esc(item.latest_label) + '</td></tr>';
        }
        el.innerHTML = html + '</table>';
        el.querySelectorAll('a[data-v]').forEach(a => a.addEventListener('click', () => navigate({ component: p.component, testType: p.testType, version: a.dataset.v })));
        return;
      }

      html += '<h1>' + esc(p.component) + ' / ' + esc(p.testType) + ' / ' + esc(p.version) + '</h1>' + panelNotice('summary');
      if (v.build) {
        html += '<h2>' + esc(v.build.title) + '</h2><table><tr><th>Backend</th><th>Tests</th><th>Failures</th><th>Errors</th><th>Skipped</th><th>Time</th><th>Success</th></tr>';
        for (const b of v.build.backends || []) {
          html += '<tr><td><a data-backend="' + esc(b.backend) + '">' + esc(b.backend) + '</a></td><td>' + b.stats.totalTests + '</td><td>' + b.stats.totalFailures + '</td><td>' + b.stats.totalErrors + '</td><td>' + b.stats.totalSkipped + '</td><td>' + b.stats.totalTime.toFixed(2) + 's</td><td class="rate-' + esc(b.rate_class) + '">' + esc(b.rate_label) + '</td></tr>';
        }
        html += '</table>';
      }
      const q = pathQuery({ component: p.component, testType: p.testType, version: p.version });
      if ((v.builds || []).length) {
        html += '<div class="chart"><img alt="chart" src="/api/v1/chart.png?' + q + '&metric=failures" /></div>';
        for (const s of v.series || []) {
          html += '<p class="muted">' + esc(s.backend) + ': ';
          s.labels.forEach((label, i) => { html += '<a data-series="' + esc(s.backend) + '" data-index="' + i + '" title="failures ' + s.failures[i] + '">' + esc(label) + '</a> '; });
          html += '</p>';
        }
        html += '<table><tr><th>Build</th><th>Time</th><th>Revision</th><th>Backends</th></tr>';
        for (const b of v.builds) {
          const cls = p.build === b.key ? ' class="focused"' : '';
          html += '<tr' + cls + '><td><a data-build="' + esc(b.key) + '">' + esc(b.key) + '</a></td><td>' + esc(b.label) + '</td><td>' + esc(b.revision) + '</td><td>' + esc((b.backends || []).join(', ')) + '</td></tr>';
        }
        html += '</table>';
      }
      el.innerHTML = html;
      el.querySelectorAll('a[data-build]').forEach(a => a.addEventListener('click', () => navigate({ component: p.component, testType: p.testType, version: p.version, build: a.dataset.build })));
      el.querySelectorAll('a[data-backend]').forEach(a => a.addEventListener('click', () => navigate({ component: p.component, testType: p.testType, version: p.version, build: p.build, backend: a.dataset.backend })));
      el.querySelectorAll('a[data-series]').forEach(a => a.addEventListener('click', () => chartClick(a.dataset.series, Number(a.dataset.index))));
    }

    function formatTime(t) {
      return t == null ? '' : Number(t).toFixed(3);
    }

    function renderDetail() {
      const el = document.getElementById('detail');
      const v = state.view;
      const d = v.detail;
      if (!d) {
        el.hidden = true;
        el.innerHTML = '';
        return;
      }
      el.hidden = false;
      const t = d.tally || {};
      let html = panelError('detail') + '<div class="toolbar"><button id="back">Back to summary</button><h2>' + esc(d.backend) + (d.compared ? ' vs ' + esc(d.counterpart) : '') + '</h2>';
      html += '<select id="filter">' + ['all', 'PASS', 'FAIL', 'SKIPPED'].map(f => '<option' + (f === state.filter ? ' selected' : '') + '>' + f + '</option>').join('') + '</select>';
      html += '<span class="muted">' + t.total + ' tests, ' + t.passed + ' passed, ' + t.failed + ' failed, ' + t.skipped + ' skipped</span>';
      html += '<button id="prev"' + (d.problems ? '' : ' disabled') + '>Previous problem</button><button id="next"' + (d.problems ? '' : ' disabled') + '>Next problem</button></div>';
      html += panelNotice('detail');
      const cols = [['suite', 'Suite'], ['test', 'Test'], ['status', 'Status'], ['time', 'Time'], ['delta', 'Delta']];
      html += '<table><tr>' + cols.map(c => '<th data-sort="' + c[0] + '">' + c[1] + (state.sort === c[0] ? (state.order === 'desc' ? ' v' : ' ^') : '') + '</th>').join('') + '</tr>';
      const focused = d.focused;
      for (const r of d.rows || []) {
        const isFocused = focused && focused.suite_name === r.suite_name && focused.test_case.name === r.test_case.name;
        const deltaCls = r.delta == null ? '' : (r.delta > 0 ? 'delta-pos' : 'delta-neg');
        html += '<tr' + (isFocused ? ' class="focused"' : '') + ' data-suite="' + esc(r.suite_name) + '" data-test="' + esc(r.test_case.name) + '"><td title="' + esc(r.suite_name) + '">' + esc(r.suite_display) + '</td><td>' + esc(r.test_case.name) + '</td><td class="status-' + r.status + '">' + r.status + '</td><td>' + formatTime(r.time) + '</td><td class="' + deltaCls + '">' + (r.delta == null ? '' : (r.delta > 0 ? '+' : '') + formatTime(r.delta)) + '</td></tr>';
      }
      html += '</table>';
      if (focused) {
        const problem = focused.test_case.failure || focused.test_case.error || focused.test_case.skipped || {};
        html += '<h2>' + esc(focused.suite_display) + ' / ' + esc(focused.test_case.name) + '</h2><pre class="inspector">' + esc([problem.type, problem.message, problem.text].filter(Boolean).join('\n')) + '</pre>';
      }
      el.innerHTML = html;

      const p = v.path;
      const q = pathQuery(p);
      document.getElementById('back').addEventListener('click', () => navigate({ component: p.component, testType: p.testType, version: p.version, build: p.build }));
      document.getElementById('filter').addEventListener('change', e => { state.filter = e.target.value; loadView(q, false); });
      document.getElementById('prev').addEventListener('click', () => loadView(q, false, 'step=prev'));
      document.getElementById('next').addEventListener('click', () => loadView(q, false, 'step=next'));
      el.querySelectorAll('th[data-sort]').forEach(th => th.addEventListener('click', () => {
        if (state.sort === th.dataset.sort) {
          state.order = state.order === 'desc' ? 'asc' : 'desc';
        } else {
          state.sort = th.dataset.sort;
          state.order = 'asc';
        }
        loadView(q, false);
      }));
      el.querySelectorAll('tr[data-suite]').forEach(tr => tr.addEventListener('click', () => {
        state.suite = tr.dataset.suite;
        state.test = tr.dataset.test;
        loadView(q, false);
      }));
    }

    function render() {
      if (state.view && state.view.detail && state.view.detail.focused) {
        state.suite = state.view.detail.focused.suite_name;
        state.test = state.view.detail.focused.test_case.name;
      }
      renderTree();
      renderSummary();
      renderDetail();
    }

    window.addEventListener('popstate', () => {
      state.suite = '';
      state.test = '';
      loadView(location.search.replace(/^\?/, ''), false);
    });

    (async function boot() {
      try {
        state.tree = await apiJSON('/api/v1/tree');
      } catch (err) {
        document.getElementById('tree').innerHTML = '<p class="panel-error">' + esc(err.message) + '</p>';
      }
      loadView(location.search.replace(/^\?/, ''), false);
    })();
`
