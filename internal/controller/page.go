package controller

// feedPage renders the feed. The script holds no feed logic: it forwards page
// events over the websocket and executes the effects it gets back.
const feedPage = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width,initial-scale=1">
<title>Feed</title>
<script src="https://cdn.dashjs.org/latest/dash.all.min.js"></script>
<style>
body{margin:0;background:#000;color:#eee;font-family:system-ui,sans-serif;height:200vh}
#videos{position:fixed;top:0;left:0;right:0;bottom:56px;display:flex;justify-content:center}
#videos video{height:100%;max-width:100%}
#controls{position:fixed;left:0;right:0;bottom:0;height:56px;display:flex;gap:8px;align-items:center;padding:0 12px;background:#111}
#seekBar{flex:1}
</style>
</head>
<body>
<div id="videos"></div>
<div id="controls">
  <button id="playPauseBtn">Play</button>
  <input id="seekBar" type="range" min="0" max="0" step="0.1" value="0">
  <select id="resolutionSelect"></select>
  <button id="like">Like</button>
  <button id="dislike">Dislike</button>
</div>
<script>
(function () {
  const videoId = {{.VideoID}};
  const baseline = {{.ScrollBaseline}};
  const videosDiv = document.getElementById("videos");
  const playPauseBtn = document.getElementById("playPauseBtn");
  const seekBar = document.getElementById("seekBar");
  const resolutionSelect = document.getElementById("resolutionSelect");
  const players = [];
  let current = 0;
  let resetting = false;

  const scheme = location.protocol === "https:" ? "wss://" : "ws://";
  const ws = new WebSocket(scheme + location.host + "/api/v1/ws/feed/" + encodeURIComponent(videoId));

  function send(type, payload) {
    if (ws.readyState === WebSocket.OPEN) {
      ws.send(JSON.stringify({ type: type, payload: payload || {} }));
    }
  }

  function resetScroll(offset) {
    if (Math.round(window.scrollY) !== offset) {
      resetting = true;
      window.scrollTo(0, offset);
    }
  }

  function createPlayer(p) {
    const el = document.createElement("video");
    el.dataset.index = p.index;
    el.controls = true;
    el.preload = "auto";
    el.style.display = "none";
    videosDiv.appendChild(el);

    const player = dashjs.MediaPlayer().create();
    player.initialize(el, p.manifest_url, false);
    player.updateSettings({ streaming: { abr: { autoSwitchBitrate: { video: p.auto_switch_bitrate } } } });
    player.on(dashjs.MediaPlayer.events.STREAM_INITIALIZED, function () {
      const list = player.getBitrateInfoListFor("video") || [];
      send("STREAM_INITIALIZED", {
        index: p.index,
        qualities: list.map(function (q) { return { height: q.height, width: q.width, bandwidth: q.bitrate }; })
      });
    });
    player.on(dashjs.MediaPlayer.events.PLAYBACK_METADATA_LOADED, function () {
      send("METADATA_LOADED", { index: p.index, duration: player.duration() });
    });
    el.addEventListener("timeupdate", function () {
      if (p.index === current) {
        send("PROGRESS", { index: p.index, time: player.time() });
      }
    });
    player.pause();
    players[p.index] = { el: el, player: player };
  }

  const effects = {
    SESSION_OPENED: function () { resetScroll(baseline); },
    CREATE_PLAYERS: function (e) { e.players.forEach(createPlayer); },
    SHOW_PLAYER: function (e) { players[e.index].el.style.display = "block"; current = e.index; },
    HIDE_PLAYER: function (e) { players[e.index].el.style.display = "none"; },
    PLAY_PLAYER: function (e) { players[e.index].player.play(); },
    PAUSE_PLAYER: function (e) { players[e.index].player.pause(); },
    SET_PLAY_BUTTON: function (e) { playPauseBtn.textContent = e.label; },
    PUSH_HISTORY: function (e) { window.history.pushState({}, "", e.path); },
    SET_SEEK_MAX: function (e) { seekBar.max = e.max; },
    SET_SEEK_VALUE: function (e) { seekBar.value = e.value; },
    SEEK_PLAYER: function (e) { players[e.index].player.seek(e.position); },
    SET_QUALITY_OPTIONS: function (e) {
      resolutionSelect.innerHTML = "";
      e.options.forEach(function (o) {
        const option = document.createElement("option");
        option.value = o.value;
        option.textContent = o.label;
        resolutionSelect.appendChild(option);
      });
    },
    APPLY_QUALITY: function (e) { players[e.index].player.setQualityFor("video", e.level); },
    RESET_SCROLL: function (e) { resetScroll(e.offset); },
    ERROR: function (e) { console.warn("feed:", e.message, e.details || ""); }
  };

  ws.onmessage = function (msg) {
    const out = JSON.parse(msg.data);
    const fn = effects[out.type];
    if (fn) {
      fn(out.payload);
    }
  };

  window.addEventListener("scroll", function () {
    if (resetting) {
      resetting = false;
      return;
    }
    send("SCROLL", { offset: Math.round(window.scrollY) });
    resetScroll(baseline);
  });
  playPauseBtn.addEventListener("click", function () { send("TOGGLE_PLAY"); });
  seekBar.addEventListener("input", function () { send("SEEK", { position: parseFloat(seekBar.value) }); });
  resolutionSelect.addEventListener("change", function () {
    send("QUALITY_CHANGED", { level: parseInt(resolutionSelect.value, 10) });
  });
  document.getElementById("like").addEventListener("click", function () { send("LIKE", { value: true }); });
  document.getElementById("dislike").addEventListener("click", function () { send("LIKE", { value: false }); });
  setInterval(function () { send("ALIVE"); }, 30000);
})();
</script>
</body>
</html>
`
