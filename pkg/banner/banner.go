package banner

import "fmt"

const banner = `
██╗     ██╗   ██╗███╗   ███╗██╗███╗   ██╗ █████╗      ██████╗██╗  ██╗ █████╗ ████████╗
██║     ██║   ██║████╗ ████║██║████╗  ██║██╔══██╗    ██╔════╝██║  ██║██╔══██╗╚══██╔══╝
██║     ██║   ██║██╔████╔██║██║██╔██╗ ██║███████║    ██║     ███████║███████║   ██║
██║     ██║   ██║██║╚██╔╝██║██║██║╚██╗██║██╔══██║    ██║     ██╔══██║██╔══██║   ██║
███████╗╚██████╔╝██║ ╚═╝ ██║██║██║ ╚████║██║  ██║    ╚██████╗██║  ██║██║  ██║   ██║
╚══════╝ ╚═════╝ ╚═╝     ╚═╝╚═╝╚═╝  ╚═══╝╚═╝  ╚═╝     ╚═════╝╚═╝  ╚═╝╚═╝  ╚═╝   ╚═╝
`

// Print writes the startup banner with the effective runtime settings.
func Print(addr, dbPath, version string) {
	fmt.Print(banner)
	fmt.Println("== Config =====================================================")
	fmt.Printf("Listen:   %s\n", addr)
	fmt.Printf("DB Path:  %s\n", dbPath)
	if version != "" {
		fmt.Printf("Version:  %s\n", version)
	}
	fmt.Println("\n== Endpoints ==================================================")
	fmt.Println("POST /v1/login                       - Fabricate the local user")
	fmt.Println("GET  /v1/chats                       - List chats (q= filters by name)")
	fmt.Println("POST /v1/chats                       - Start a chat (JSON: user_id)")
	fmt.Println("POST /v1/chats/{id}/messages         - Send a message (JSON: text, attachments)")
	fmt.Println("POST /v1/chats/{id}/messages/{mid}/reactions - Toggle a reaction (JSON: emoji)")
	fmt.Println("\n== Examples ===================================================")
	fmt.Printf("curl -X POST 'http://%s/v1/login' -d '{\"email\":\"me@example.com\"}'\n", addr)
	fmt.Printf("curl 'http://%s/v1/chats'\n", addr)
}
