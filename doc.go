/*
Package sheets-trader runs a watchlist driven trading job against a Google Sheets worksheet.

sheets-trader can be used from the command line but is really intended to be run from a cron job to
periodically sweep a watchlist of ticker symbols staged in a Google Sheets worksheet, submitting a
notional market BUY order for each symbol through the Alpaca trading API and recording the outcome
back to the worksheet.

sheets-trader supports the following commands:

  - run, to process the staged watchlist, submit the orders and clear the watchlist
  - check, to verify the Google Sheets and Alpaca credentials without trading
  - get, to download a Google Sheets worksheet range as a TSV or XLSX file
  - put, to stage a watchlist from a local file to the Google Sheets worksheet
*/
package trader
