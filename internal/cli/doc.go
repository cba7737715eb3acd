// Package cli implements the interactive nicole console.
//
// The console reads one command per line and dispatches it to the App.
// Commands that need more input prompt for it on the same stream;
// passwords are read from the terminal without echo.
//
//	help                    list commands
//	login | logout | whoami
//	tables | refresh        list managed tables, reloading the cache on refresh
//	use <table>             select the current table
//	show                    fetch and print the current table
//	search <text>           case-insensitive filter over the current table
//	add | edit [id] | delete [id]
//	export <path|s3://key>  write the current table as CSV, XLSX or PDF
//	history [table]         audit trail, newest first
//	adduser | reset | profile
//	exit | quit
//
// Authorization is enforced by the services; the console only reports
// refusals.
package cli
