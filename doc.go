// Copyright 2023 uhppoted@twyst.co.za. All rights reserved.
// Use of this source code is governed by an MIT-style license
// that can be found in the LICENSE file.

/*
Package uhppoted-app-sheets-sync copies worksheets from a Google Sheets spreadsheet to relational database tables.

uhppoted-app-sheets-sync can be used from the command line but is really intended to be run from a cron job to
keep a set of 'raw' database tables in step with the worksheets that are maintained by hand. Each sync fully
replaces the contents of the target table inside a single transaction.

uhppoted-app-sheets-sync supports the following commands:

  - sync, to copy the configured worksheet tabs to their database tables (the default)
  - get, to download a Google Sheets worksheet as a TSV file
  - version, to display the application version
*/
package sheets
