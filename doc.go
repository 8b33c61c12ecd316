/*
ASH500 is a receiver for ASH500 remote temperature and humidity sensors. A
packet radio configured for the sensors' framing reports each reception as a
line of text; ASH500 decodes the line coding, realigns the bitstream, checks
parity, removes the transmitter's whitening and prints the reading.

Captures:

Each reception is reported on its own line:

	<syncid> <rssi> <timestamp> <data>

	0 -87 4012345 a9aaaa5669a6aa56a6aa565aa965566a9a9a5966

syncid is the index of the sync word the radio matched (0 for 0x159, 1 for
0x15A), rssi is in dBm, timestamp is the radio timer at reception and data is
the 20 byte line coded payload in hex. Lines starting with # are ignored.

Command-line Flags:

	-source="-"

Reads captures from the named file, or stdin if "-".

	-serial=""

Reads captures from a serial device instead, at -baud (default 115200).

	-msgtype="ash500"

Parser to decode captures with.

	-format="plain"

Sets the output format: plain, csv, json or xml. Plain text is formatted
using the following format string:

	{Time:%s Slot:%d RSSI:%d Timestamp:%d ASH500:{Serial:%3d Temperature:%5s C Humidity:%3d%%}}

CSV output begins with a header row.

	-filterid=

Display only readings from the given comma-separated sensor ids.

	-unique=false

Suppress a reading if it is identical to the last reading from the same
sensor.

	-capacity=4

Number of sensors tracked. Each new sensor is assigned the next free slot,
reported in the Slot field. Once every slot is taken readings from new
sensors are still printed with a slot of -1.

	-single=false

Exit after the first reading. Used with -filterid, wait for one reading from
each listed sensor.

	-duration=0

Time to run for, 0 for infinite.

	-mqtt=""

Publish every reading as JSON to the given broker, ex. tcp://localhost:1883,
under the topic <mqtttopic>/<serial>.

	-metrics=""

Serve Prometheus metrics on the given address at /metrics.

	-loglevel="info", -logformat="text"

Log verbosity and formatting. Discarded captures are logged at debug.

Every flag may also be set through the environment as ASH500_<FLAG>, for
example ASH500_FORMAT=json.
*/
package main
