package server

import "net/http"

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(indexHTML))
}

const indexHTML = `<!DOCTYPE html>
<html>
<head>
    <title>Web Serial Monitor</title>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; background-color: #f5f5f5; }
        .container { max-width: 1100px; margin: 0 auto; background: white; padding: 20px;
                     border-radius: 8px; box-shadow: 0 2px 10px rgba(0,0,0,0.1); }
        select, input[type=text] { padding: 6px; font-size: 14px; }
        button { padding: 8px 16px; margin: 4px; border: none; border-radius: 4px;
                 cursor: pointer; font-size: 14px; }
        .btn-connect { background-color: #28a745; color: white; }
        .btn-disconnect { background-color: #dc3545; color: white; }
        .status { padding: 8px; margin: 10px 0; border-radius: 4px; font-weight: bold; }
        .connected { background-color: #d4edda; color: #155724; }
        .disconnected { background-color: #f8d7da; color: #721c24; }
        #log { border: 1px solid #ddd; padding: 12px; height: 420px; overflow-y: auto;
               margin-top: 10px; background-color: #fafafa;
               font-family: 'Courier New', monospace; font-size: 14px; }
        .log-line { margin: 2px 0; }
        .timestamp { color: #0066cc; }
        .rx { color: #009900; }
        .tx { color: #cc6600; }
        .info { color: #666; }
    </style>
</head>
<body>
    <div class="container">
        <h1>Web Serial Monitor</h1>

        <div>
            <select id="port_select"><option value="">-- Select Port --</option></select>
            <select id="baudrate_select"></select>
            <button onclick="refreshPorts()">Refresh</button>
            <button class="btn-connect" id="connect_btn" onclick="toggleConnect()">Open Port</button>
            <label><input type="checkbox" id="timestamp_toggle" checked> Timestamps</label>
        </div>

        <div class="status disconnected" id="status">Disconnected</div>

        <div>
            <input type="text" id="send_input" size="60" placeholder="Data to send" disabled>
            <select id="end_with_select">
                <option value="\r\n" selected>CRLF</option>
                <option value="\n">LF</option>
                <option value="\r">CR</option>
                <option value="">None</option>
            </select>
            <button id="send_btn" onclick="sendData()" disabled>Send</button>
        </div>

        <div id="log"></div>
    </div>

    <script>
        let ws = null;
        const baudrates = [9600, 19200, 38400, 57600, 115200, 230400, 460800, 921600];
        const endings = { '\\r\\n': '\r\n', '\\n': '\n', '\\r': '\r', '': '' };

        const baudSelect = document.getElementById('baudrate_select');
        baudrates.forEach(b => {
            const o = document.createElement('option');
            o.value = b; o.textContent = b;
            if (b === 115200) o.selected = true;
            baudSelect.appendChild(o);
        });

        async function refreshPorts() {
            try {
                const resp = await fetch('/api/list_ports');
                const data = await resp.json();
                const sel = document.getElementById('port_select');
                const current = sel.value;
                sel.innerHTML = '<option value="">-- Select Port --</option>';
                if (data.success) {
                    data.ports.forEach(p => {
                        const o = document.createElement('option');
                        o.value = p; o.textContent = p;
                        if (p === current) o.selected = true;
                        sel.appendChild(o);
                    });
                } else {
                    logLine('Failed to list ports: ' + data.message, 'info');
                }
            } catch (e) {
                logLine('Network error while listing ports.', 'info');
            }
        }

        function toggleConnect() {
            if (ws) { ws.close(); return; }
            const port = document.getElementById('port_select').value;
            if (!port) { alert('Please select a serial port first!'); return; }
            const baud = baudSelect.value;
            const proto = location.protocol === 'https:' ? 'wss:' : 'ws:';
            ws = new WebSocket(proto + '//' + location.host + '/serial?port=' +
                encodeURIComponent(port) + '&baudrate=' + baud);

            ws.onopen = () => setConnected(true, port, baud);
            ws.onclose = () => { ws = null; setConnected(false); };
            ws.onmessage = (e) => {
                const msg = JSON.parse(e.data);
                if (msg.event === 'serial_data_recv') {
                    logLine(msg.data.data, 'rx');
                } else if (msg.event === 'serial_error') {
                    logLine('Error on ' + msg.data.port + ': ' + msg.data.message, 'info');
                }
            };
        }

        function sendData() {
            if (!ws) return;
            const input = document.getElementById('send_input');
            const endKey = document.getElementById('end_with_select').value;
            ws.send(JSON.stringify({
                event: 'serial_data_send',
                data: { data: input.value, end_with: endings[endKey] }
            }));
            logLine(input.value, 'tx');
            input.value = '';
        }

        document.getElementById('send_input').addEventListener('keydown', (e) => {
            if (e.key === 'Enter') sendData();
        });

        function setConnected(on, port, baud) {
            const st = document.getElementById('status');
            const btn = document.getElementById('connect_btn');
            st.className = 'status ' + (on ? 'connected' : 'disconnected');
            st.textContent = on ? 'Connected to ' + port + ' @ ' + baud + ' bps' : 'Disconnected';
            btn.textContent = on ? 'Close Port' : 'Open Port';
            btn.className = on ? 'btn-disconnect' : 'btn-connect';
            document.getElementById('send_input').disabled = !on;
            document.getElementById('send_btn').disabled = !on;
        }

        function logLine(text, kind) {
            const log = document.getElementById('log');
            const line = document.createElement('div');
            line.className = 'log-line ' + kind;
            if (document.getElementById('timestamp_toggle').checked && kind !== 'info') {
                const now = new Date();
                const ts = document.createElement('span');
                ts.className = 'timestamp';
                ts.textContent = '[' + now.toLocaleTimeString('en-GB', { hour12: false }) +
                    '.' + String(now.getMilliseconds()).padStart(3, '0') + '] ';
                line.appendChild(ts);
            }
            line.appendChild(document.createTextNode(text));
            log.appendChild(line);
            log.scrollTop = log.scrollHeight;
        }

        window.onload = refreshPorts;
    </script>
</body>
</html>`
